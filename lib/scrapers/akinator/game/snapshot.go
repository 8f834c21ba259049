package game

import (
	"fmt"
	"strconv"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/extract"
)

// Phase is the state machine's position, it is derived from the
// session's flags.
type Phase int

const (
	PhaseUnstarted Phase = iota
	PhaseQuestioning
	PhaseAwaitingResolution
	PhaseWon
	PhaseLost
)

func (p Phase) String() string {
	switch p {
	case PhaseUnstarted:
		return "unstarted"
	case PhaseQuestioning:
		return "questioning"
	case PhaseAwaitingResolution:
		return "awaiting resolution"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeWin means the guess was confirmed.
	OutcomeWin
	// OutcomeLoss means the player beat the guesser.
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	}
	return "none"
}

type Proposal = extract.Proposal

const (
	InitialProgress  = "0.00000"
	FinishedProgress = "100.00000"

	MoodStart   = "defi.png"
	MoodWin     = "triomphe.png"
	MoodDefeat  = "deception.png"
	moodsFolder = "/assets/img/akitudes_670x1096/"

	// DefeatMessage is what the website shows once it has run out of
	// guesses.
	DefeatMessage = "Bravo, you have defeated me !\nShare your feat with your friends"
)

// Snapshot is a copy of every session field. The machine never hands out
// a snapshot that shares memory with its own state.
type Snapshot struct {
	Started bool
	Expired bool

	RegionURI string
	Language  string
	Theme     gamedata.Theme
	ChildMode bool

	SessionToken   string
	SignatureToken string
	ClientToken    string

	// Step is the service's 0-based step, the first question is step 0.
	Step               int
	StepAtLastProposal int
	HasProposed        bool

	Progress           string
	Mood               string
	Prompt             string
	PropositionMessage string

	AwaitingResolution bool
	Terminal           bool
	Outcome            Outcome
	Proposal           *Proposal

	LastStatus extract.Status
}

func (s Snapshot) clone() Snapshot {
	if s.Proposal != nil {
		p := *s.Proposal
		s.Proposal = &p
	}
	return s
}

func (s Snapshot) Phase() Phase {
	switch {
	case !s.Started:
		return PhaseUnstarted
	case s.Outcome == OutcomeWin:
		return PhaseWon
	case s.Outcome == OutcomeLoss:
		return PhaseLost
	case s.AwaitingResolution:
		return PhaseAwaitingResolution
	}
	return PhaseQuestioning
}

// Confidence is Progress scaled to [0, 1].
func (s Snapshot) Confidence() float64 {
	progress, err := strconv.ParseFloat(s.Progress, 64)
	if err != nil {
		return 0
	}
	return progress / 100
}

// Question is the 1-based number of the current question.
func (s Snapshot) Question() int {
	return s.Step + 1
}

func (s Snapshot) MoodURL() string {
	if s.RegionURI == "" || s.Mood == "" {
		return ""
	}
	return s.RegionURI + moodsFolder + s.Mood
}

func (s Snapshot) String() string {
	if s.AwaitingResolution && !s.Terminal && s.Proposal != nil {
		return fmt.Sprintf("%s %s (%s)", s.PropositionMessage, s.Proposal.Name, s.Proposal.Description)
	}
	return s.Prompt
}
