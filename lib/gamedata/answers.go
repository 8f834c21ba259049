package gamedata

import (
	"fmt"
	"strings"
)

// Answer is the numeric answer code the service expects.
type Answer int

const (
	AnswerYes Answer = iota
	AnswerNo
	AnswerIdk
	AnswerProbably
	AnswerProbablyNot
)

var answerSynonyms = map[Answer][]string{
	AnswerYes:         {"yes", "y", "0"},
	AnswerNo:          {"no", "n", "1"},
	AnswerIdk:         {"i", "idk", "i dont know", "i don't know", "unsure", "2"},
	AnswerProbably:    {"p", "probably", "3"},
	AnswerProbablyNot: {"pn", "probably not", "4"},
}

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	case AnswerIdk:
		return "i don't know"
	case AnswerProbably:
		return "probably"
	case AnswerProbablyNot:
		return "probably not"
	}
	return fmt.Sprintf("Answer(%d)", int(a))
}

// Valid reports if the answer is one of the five codes the service knows.
func (a Answer) Valid() bool {
	return a >= AnswerYes && a <= AnswerProbablyNot
}

// InvalidChoiceError is returned when an answer cannot be parsed or when
// an operation is not legal in the session's current state.
type InvalidChoiceError struct {
	Input  string
	Reason string
}

func (e *InvalidChoiceError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid choice: %s", e.Reason)
	}
	return fmt.Sprintf("invalid choice %q: %s", e.Input, e.Reason)
}

// ParseAnswer maps a case-insensitive text synonym ("yes", "pn", "3", ...)
// onto its answer code.
func ParseAnswer(s string) (Answer, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for answer, synonyms := range answerSynonyms {
		for _, syn := range synonyms {
			if syn == normalized {
				return answer, nil
			}
		}
	}
	return 0, &InvalidChoiceError{Input: s, Reason: "unrecognized answer"}
}

// CheckAnswer validates a numeric answer code.
func CheckAnswer(a Answer) error {
	if !a.Valid() {
		return &InvalidChoiceError{
			Input:  fmt.Sprint(int(a)),
			Reason: "answer id must be between 0 and 4",
		}
	}
	return nil
}
