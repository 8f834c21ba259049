package extract

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/textutil"

	"github.com/tidwall/gjson"
)

// Status is the "completion" value of a step reply.
type Status string

const (
	StatusOK        Status = "OK"
	StatusTimeout   Status = "KO - TIMEOUT"
	StatusSoundlike Status = "SOUNDLIKE"
)

func (s Status) known() bool {
	switch s {
	case StatusOK, StatusTimeout, StatusSoundlike:
		return true
	}
	return false
}

// Policy decides how a reply that cannot be understood is reported.
type Policy int

const (
	// Strict reports unusable replies as *ProtocolError (or
	// *core.TransportError for failing HTTP statuses).
	Strict Policy = iota
	// NoMoreCandidates reports every unusable reply as ErrNoMoreCandidates,
	// this is how the service answers an exclusion when it has nothing
	// left to propose.
	NoMoreCandidates
)

var (
	// ErrNoMoreCandidates means the service has run out of guesses.
	ErrNoMoreCandidates = errors.New("no more candidates")
	// ErrServiceProblem is the service's own "technical problem" page.
	ErrServiceProblem = errors.New("a technical problem has occurred")
)

const excerptLimit = 256

// ProtocolError is a reply whose shape is not understood.
type ProtocolError struct {
	Kind    string
	Reason  string
	Excerpt string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected %s response: %s: %s (body: %q)", e.Kind, e.Reason, e.Err.Error(), e.Excerpt)
	}
	return fmt.Sprintf("unexpected %s response: %s (body: %q)", e.Kind, e.Reason, e.Excerpt)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func newProtocolError(kind, reason string, body []byte, err error) *ProtocolError {
	return &ProtocolError{
		Kind:    kind,
		Reason:  reason,
		Excerpt: textutil.Truncate(string(body), excerptLimit),
		Err:     err,
	}
}

// the service has renamed a few fields over time, the first key present
// wins
var (
	keysStatus      = []string{"completion", "status"}
	keysMood        = []string{"akitude", "mood"}
	keysStep        = []string{"step"}
	keysProgression = []string{"progression", "progress"}
	keysQuestion    = []string{"question", "question_text"}

	keysProposalId    = []string{"id_proposition", "idProposition"}
	keysProposalName  = []string{"name_proposition", "nameProposition"}
	keysProposalDesc  = []string{"description_proposition", "descriptionProposition"}
	keysProposalAlias = []string{"pseudo"}
	keysProposalPhoto = []string{"photo"}
	keysProposalFlag  = []string{"flag_photo", "flagPhoto"}
)

func lookup(obj gjson.Result, keys []string) (gjson.Result, bool) {
	for _, k := range keys {
		value := obj.Get(k)
		if value.Exists() {
			return value, true
		}
	}
	return gjson.Result{}, false
}

func lookupString(obj gjson.Result, keys []string) string {
	value, _ := lookup(obj, keys)
	return value.String()
}

// QuestionUpdate is a reply that moves the game to another question.
type QuestionUpdate struct {
	Mood     string
	Step     int
	Progress string
	Prompt   string
}

// Proposal is a reply carrying a guess.
type Proposal struct {
	Id          string
	Name        string
	Description string
	Pseudo      string
	Photo       string
	FlagPhoto   string
}

// StepReply is a parsed answer, cancel or exclude reply. At most one of
// Question and Proposal is set, neither is set for timeout and soundlike
// replies.
type StepReply struct {
	Status Status
	// StatusInferred is true when the reply had no status and the
	// previous one was carried forward.
	StatusInferred bool
	Question       *QuestionUpdate
	Proposal       *Proposal
}

// Step parses a structured step reply. previous is the last status seen in
// this session, it stands in when the reply omits its status.
func Step(res *core.Response, req core.Request, previous Status, policy Policy) (StepReply, error) {
	reply, err := parseStep(res, req, previous)
	if err != nil && policy == NoMoreCandidates {
		return StepReply{}, fmt.Errorf("%w: %w", ErrNoMoreCandidates, err)
	}
	return reply, err
}

func parseStep(res *core.Response, req core.Request, previous Status) (StepReply, error) {
	kind := path.Base(req.Endpoint)

	if res.StatusCode >= 400 {
		return StepReply{}, core.StatusError(req, res)
	}
	if !gjson.ValidBytes(res.Body) {
		if strings.Contains(res.Text(), "A technical problem has occurred.") {
			return StepReply{}, newProtocolError(kind, "service error page", res.Body, ErrServiceProblem)
		}
		return StepReply{}, newProtocolError(kind, "reply is not json", res.Body, nil)
	}
	obj := gjson.ParseBytes(res.Body)
	if !obj.IsObject() {
		return StepReply{}, newProtocolError(kind, "reply is not an object", res.Body, nil)
	}

	reply := StepReply{}
	status, ok := lookup(obj, keysStatus)
	if ok {
		reply.Status = Status(status.String())
	} else {
		reply.Status = previous
		if reply.Status == "" {
			reply.Status = StatusOK
		}
		reply.StatusInferred = true
	}
	if !reply.Status.known() {
		return StepReply{}, newProtocolError(kind, fmt.Sprintf("unknown status %q", reply.Status), res.Body, nil)
	}
	if reply.Status != StatusOK {
		return reply, nil
	}

	id, ok := lookup(obj, keysProposalId)
	if ok {
		reply.Proposal = &Proposal{
			Id:          id.String(),
			Name:        lookupString(obj, keysProposalName),
			Description: lookupString(obj, keysProposalDesc),
			Pseudo:      lookupString(obj, keysProposalAlias),
			Photo:       lookupString(obj, keysProposalPhoto),
			FlagPhoto:   lookupString(obj, keysProposalFlag),
		}
		return reply, nil
	}

	question, err := parseQuestion(obj)
	if err != nil {
		return StepReply{}, newProtocolError(kind, err.Error(), res.Body, nil)
	}
	reply.Question = &question
	return reply, nil
}

func parseQuestion(obj gjson.Result) (QuestionUpdate, error) {
	prompt, ok := lookup(obj, keysQuestion)
	if !ok {
		return QuestionUpdate{}, fmt.Errorf("missing field %q", keysQuestion[0])
	}
	stepValue, ok := lookup(obj, keysStep)
	if !ok {
		return QuestionUpdate{}, fmt.Errorf("missing field %q", keysStep[0])
	}
	step, err := strconv.Atoi(strings.TrimSpace(stepValue.String()))
	if err != nil || step < 0 {
		return QuestionUpdate{}, fmt.Errorf("invalid step %q", stepValue.String())
	}
	progressValue, ok := lookup(obj, keysProgression)
	if !ok {
		return QuestionUpdate{}, fmt.Errorf("missing field %q", keysProgression[0])
	}
	progress := strings.TrimSpace(progressValue.String())
	value, err := strconv.ParseFloat(progress, 64)
	if err != nil || !(value >= 0 && value <= 100) {
		return QuestionUpdate{}, fmt.Errorf("invalid progression %q", progress)
	}

	return QuestionUpdate{
		Mood:     lookupString(obj, keysMood),
		Step:     step,
		Progress: progress,
		Prompt:   Unescape(prompt.String()),
	}, nil
}
