package extract

import "fmt"

const (
	KindInit         = "init"
	KindChoiceResult = "choice-result"
)

const (
	FieldSession     = "session"
	FieldSignature   = "signature"
	FieldIdentifiant = "identifiant"
	FieldQuestion    = "question"
	FieldProposition = "proposition message"

	FieldWinSentence   = "win sentence"
	FieldAlreadyPlayed = "already played label"
	FieldTimesSelected = "times selected"
	FieldTimesLabel    = "times label"
)

// tokens are assigned into hidden inputs by inline script, e.g.
// $('#session').val('1234');
func tokenAssignment(id string) Locator {
	return ScriptValue(`#` + id + `['"]\)\.val\(['"](.+?)['"]\)`)
}

var initRules = RuleSet{
	Kind: KindInit,
	Rules: []Rule{
		{Field: FieldSession, Locate: tokenAssignment("session"), Requirement: Required},
		{Field: FieldSignature, Locate: tokenAssignment("signature"), Requirement: Required},
		{Field: FieldIdentifiant, Locate: tokenAssignment("identifiant"), Requirement: Required},
		{
			Field:       FieldQuestion,
			Locate:      MarkupText(".bubble-body #question-label"),
			Requirement: Required,
			Post:        []func(string) string{Collapse},
		},
		{
			Field:       FieldProposition,
			Locate:      MarkupText(".sub-bubble-propose #p-sub-bubble"),
			Requirement: BestEffort,
			Post:        []func(string) string{Collapse},
		},
	},
}

var choiceResultRules = RuleSet{
	Kind: KindChoiceResult,
	Rules: []Rule{
		{
			Field:       FieldWinSentence,
			Locate:      MarkupText("span.win-sentence"),
			Requirement: BestEffort,
			Post:        []func(string) string{Collapse},
		},
		{
			Field:       FieldAlreadyPlayed,
			Locate:      ScriptValue(`let tokenDejaJoue = "([^"]+)";`),
			Requirement: BestEffort,
			Post:        []func(string) string{Unescape},
		},
		{
			Field:       FieldTimesSelected,
			Locate:      ScriptValue(`let timesSelected = "(\d+)";`),
			Requirement: BestEffort,
		},
		{
			Field:       FieldTimesLabel,
			Locate:      TextAfter("#timesselected"),
			Requirement: BestEffort,
			Post:        []func(string) string{Collapse},
		},
	},
}

// InitFields is what the game page yields when a session starts.
type InitFields struct {
	Session     string
	Signature   string
	Identifiant string
	Question    string
	// Proposition is the "I think of" lead-in, it may be empty.
	Proposition string
}

// Init extracts the session tokens and the first question from the game
// page. Every token and the question are required.
func Init(body string) (InitFields, error) {
	result, err := initRules.Apply(body)
	if err != nil {
		return InitFields{}, err
	}
	return InitFields{
		Session:     result.Fields[FieldSession],
		Signature:   result.Fields[FieldSignature],
		Identifiant: result.Fields[FieldIdentifiant],
		Question:    result.Fields[FieldQuestion],
		Proposition: result.Fields[FieldProposition],
	}, nil
}

// WinSummary is the message shown once a guess is confirmed.
type WinSummary struct {
	Sentence      string
	AlreadyPlayed string
	TimesSelected string
	TimesLabel    string
}

func (w WinSummary) String() string {
	return fmt.Sprintf("%s\n%s %s %s", w.Sentence, w.AlreadyPlayed, w.TimesSelected, w.TimesLabel)
}

// ChoiceResult extracts the win summary from the page returned after a
// guess is accepted. ok is false unless all four parts were found.
func ChoiceResult(body string) (summary WinSummary, skipped []string, ok bool) {
	// no rule here is required so Apply cannot fail
	result, _ := choiceResultRules.Apply(body)
	if !result.Complete() {
		return WinSummary{}, result.Skipped, false
	}
	return WinSummary{
		Sentence:      result.Fields[FieldWinSentence],
		AlreadyPlayed: result.Fields[FieldAlreadyPlayed],
		TimesSelected: result.Fields[FieldTimesSelected],
		TimesLabel:    result.Fields[FieldTimesLabel],
	}, nil, true
}
