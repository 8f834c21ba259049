package session

import (
	"context"
	"runtime"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/game"
)

// Session is the blocking front-end: every method returns once the
// network round trip has completed. A Session must not be used from more
// than one goroutine at a time and must be closed once done.
type Session struct {
	h       *handle
	machine *game.Machine
}

func New(opts ...Option) *Session {
	o := buildOptions(opts)
	s := &Session{
		h:       newHandle(o),
		machine: game.NewMachine(o.resolver(), o.tel),
	}
	runtime.SetFinalizer(s, func(s *Session) {
		s.h.leaked()
	})
	return s
}

// Start opens a game in the region of language, a language may be a code
// ("en") or a name ("english").
func (s *Session) Start(ctx context.Context, language string, childMode bool) error {
	t, err := s.h.acquire()
	if err != nil {
		return err
	}
	return s.machine.Start(ctx, t, language, childMode)
}

func (s *Session) Answer(ctx context.Context, answer gamedata.Answer) error {
	t, err := s.h.started()
	if err != nil {
		return err
	}
	return s.machine.Answer(ctx, t, answer)
}

// AnswerString parses a code or a synonym such as "y" or "probably not"
// and answers with it.
func (s *Session) AnswerString(ctx context.Context, input string) error {
	answer, err := gamedata.ParseAnswer(input)
	if err != nil {
		return err
	}
	return s.Answer(ctx, answer)
}

func (s *Session) Yes(ctx context.Context) error {
	return s.Answer(ctx, gamedata.AnswerYes)
}

func (s *Session) No(ctx context.Context) error {
	return s.Answer(ctx, gamedata.AnswerNo)
}

func (s *Session) Back(ctx context.Context) error {
	t, err := s.h.started()
	if err != nil {
		return err
	}
	return s.machine.Back(ctx, t)
}

func (s *Session) Exclude(ctx context.Context) error {
	t, err := s.h.started()
	if err != nil {
		return err
	}
	return s.machine.Exclude(ctx, t)
}

func (s *Session) Choose(ctx context.Context) error {
	t, err := s.h.started()
	if err != nil {
		return err
	}
	return s.machine.Choose(ctx, t)
}

// ResolveDefeat ends the game as a loss without contacting the service.
func (s *Session) ResolveDefeat() {
	s.machine.ResolveDefeat()
}

// Close releases the transport, calling it again is a no-op.
func (s *Session) Close() error {
	runtime.SetFinalizer(s, nil)
	return s.h.release()
}

// Transport is the transport in use, nil before Start and after Close.
func (s *Session) Transport() core.Transport {
	return s.h.current()
}

func (s *Session) Snapshot() game.Snapshot {
	return s.machine.Snapshot()
}

func (s *Session) Confidence() float64 {
	return s.machine.Snapshot().Confidence()
}

func (s *Session) IsFinished() bool {
	return s.machine.Snapshot().Terminal
}

func (s *Session) IsAwaitingResolution() bool {
	return s.machine.Snapshot().AwaitingResolution
}

func (s *Session) CurrentPrompt() string {
	return s.machine.Snapshot().Prompt
}

func (s *Session) Proposal() *game.Proposal {
	return s.machine.Snapshot().Proposal
}

func (s *Session) String() string {
	return s.machine.Snapshot().String()
}
