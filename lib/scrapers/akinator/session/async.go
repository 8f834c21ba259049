package session

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/game"
)

// ErrOperationInFlight is returned when an AsyncSession operation starts
// before the previous one finished.
var ErrOperationInFlight = errors.New("another operation is in flight")

// AsyncSession is the suspending front-end: operations return at once with
// a Future and run on their own goroutine. It accepts one operation at a
// time. Reads never block and see the state of the last finished
// operation.
type AsyncSession struct {
	// busy is held by the running operation, machine is only touched by
	// whoever holds it.
	busy atomic.Bool
	// mu guards h so Transport can be read at any time.
	mu       sync.Mutex
	h        *handle
	machine  *game.Machine
	snapshot atomic.Pointer[game.Snapshot]
}

func NewAsync(opts ...Option) *AsyncSession {
	o := buildOptions(opts)
	s := &AsyncSession{
		h:       newHandle(o),
		machine: game.NewMachine(o.resolver(), o.tel),
	}
	s.snapshot.Store(&game.Snapshot{})
	runtime.SetFinalizer(s, func(s *AsyncSession) {
		s.h.leaked()
	})
	return s
}

type operation func(ctx context.Context, t core.Transport) error

// run starts op in the background, acquire decides if the operation may
// create the transport.
func (s *AsyncSession) run(ctx context.Context, acquire bool, op operation) *Future {
	if !s.busy.CompareAndSwap(false, true) {
		return failedFuture(ErrOperationInFlight)
	}

	s.mu.Lock()
	var t core.Transport
	var err error
	if acquire {
		t, err = s.h.acquire()
	} else {
		t, err = s.h.started()
	}
	s.mu.Unlock()
	if err != nil {
		s.busy.Store(false)
		return failedFuture(err)
	}

	f := newFuture()
	go func() {
		err := op(context.WithoutCancel(ctx), t)
		snapshot := s.machine.Snapshot()
		s.snapshot.Store(&snapshot)

		s.busy.Store(false)
		f.resolve(err)
	}()
	return f
}

func (s *AsyncSession) Start(ctx context.Context, language string, childMode bool) *Future {
	return s.run(ctx, true, func(ctx context.Context, t core.Transport) error {
		return s.machine.Start(ctx, t, language, childMode)
	})
}

func (s *AsyncSession) Answer(ctx context.Context, answer gamedata.Answer) *Future {
	return s.run(ctx, false, func(ctx context.Context, t core.Transport) error {
		return s.machine.Answer(ctx, t, answer)
	})
}

// AnswerString parses a code or a synonym such as "y" or "probably not"
// and answers with it.
func (s *AsyncSession) AnswerString(ctx context.Context, input string) *Future {
	answer, err := gamedata.ParseAnswer(input)
	if err != nil {
		return failedFuture(err)
	}
	return s.Answer(ctx, answer)
}

func (s *AsyncSession) Yes(ctx context.Context) *Future {
	return s.Answer(ctx, gamedata.AnswerYes)
}

func (s *AsyncSession) No(ctx context.Context) *Future {
	return s.Answer(ctx, gamedata.AnswerNo)
}

func (s *AsyncSession) Back(ctx context.Context) *Future {
	return s.run(ctx, false, func(ctx context.Context, t core.Transport) error {
		return s.machine.Back(ctx, t)
	})
}

func (s *AsyncSession) Exclude(ctx context.Context) *Future {
	return s.run(ctx, false, func(ctx context.Context, t core.Transport) error {
		return s.machine.Exclude(ctx, t)
	})
}

func (s *AsyncSession) Choose(ctx context.Context) *Future {
	return s.run(ctx, false, func(ctx context.Context, t core.Transport) error {
		return s.machine.Choose(ctx, t)
	})
}

// ResolveDefeat ends the game as a loss without contacting the service.
func (s *AsyncSession) ResolveDefeat() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrOperationInFlight
	}
	defer s.busy.Store(false)

	s.machine.ResolveDefeat()
	snapshot := s.machine.Snapshot()
	s.snapshot.Store(&snapshot)
	return nil
}

// Close releases the transport, calling it again is a no-op. It fails
// with ErrOperationInFlight while an operation is running.
func (s *AsyncSession) Close() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrOperationInFlight
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	runtime.SetFinalizer(s, nil)
	return s.h.release()
}

// Transport is the transport in use, nil before Start and after Close.
func (s *AsyncSession) Transport() core.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.current()
}

func (s *AsyncSession) Snapshot() game.Snapshot {
	snapshot := *s.snapshot.Load()
	if snapshot.Proposal != nil {
		proposal := *snapshot.Proposal
		snapshot.Proposal = &proposal
	}
	return snapshot
}

func (s *AsyncSession) Confidence() float64 {
	return s.Snapshot().Confidence()
}

func (s *AsyncSession) IsFinished() bool {
	return s.Snapshot().Terminal
}

func (s *AsyncSession) IsAwaitingResolution() bool {
	return s.Snapshot().AwaitingResolution
}

func (s *AsyncSession) CurrentPrompt() string {
	return s.Snapshot().Prompt
}

func (s *AsyncSession) Proposal() *game.Proposal {
	return s.Snapshot().Proposal
}

func (s *AsyncSession) String() string {
	return s.Snapshot().String()
}
