package session

import (
	"context"
	"testing"

	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/game"
	"akiclient/lib/testutil"

	"github.com/stretchr/testify/require"
)

// gatedTransport holds every request until the test lets it through.
type gatedTransport struct {
	inner   core.Transport
	entered chan struct{}
	gate    chan struct{}
}

func newGatedTransport(inner core.Transport) *gatedTransport {
	return &gatedTransport{
		inner:   inner,
		entered: make(chan struct{}, 16),
		gate:    make(chan struct{}),
	}
}

func (g *gatedTransport) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.inner.Send(ctx, req)
}

func TestAsyncGame(t *testing.T) {
	ctx := context.Background()
	s := NewAsync(WithTransport(scripted()))
	defer s.Close()

	require.NoError(t, s.Start(ctx, "en", false).Wait())
	require.Equal(t, "Is it real?", s.CurrentPrompt())

	f := s.Yes(ctx)
	<-f.Done()
	require.NoError(t, f.Err())
	require.Equal(t, "Is it a person?", s.CurrentPrompt())

	require.NoError(t, s.AnswerString(ctx, "y").Wait())
	require.True(t, s.IsAwaitingResolution())
	require.NoError(t, s.Exclude(ctx).Wait())
	require.NoError(t, s.Yes(ctx).Wait())
	require.NoError(t, s.Choose(ctx).Wait())

	require.True(t, s.IsFinished())
	require.Equal(t, game.OutcomeWin, s.Snapshot().Outcome)
}

func TestAsyncOneOperationInFlight(t *testing.T) {
	ctx := context.Background()
	gated := newGatedTransport(scripted())
	s := NewAsync(WithTransport(gated), WithProbe(false))

	start := s.Start(ctx, "en", false)
	<-gated.entered
	require.Nil(t, start.Err())

	require.ErrorIs(t, s.Yes(ctx).Wait(), ErrOperationInFlight)
	require.ErrorIs(t, s.Close(), ErrOperationInFlight)
	require.ErrorIs(t, s.ResolveDefeat(), ErrOperationInFlight)
	// reads see the state before the pending operation
	require.False(t, s.Snapshot().Started)

	close(gated.gate)
	require.NoError(t, start.Wait())
	require.True(t, s.Snapshot().Started)
	require.NoError(t, s.Close())
}

func TestAsyncCompletesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gated := newGatedTransport(scripted())
	s := NewAsync(WithTransport(gated), WithProbe(false))
	defer s.Close()

	start := s.Start(ctx, "en", false)
	<-gated.entered
	cancel()

	require.ErrorIs(t, start.WaitContext(ctx), context.Canceled)
	close(gated.gate)
	require.NoError(t, start.Wait())
	require.Equal(t, "Is it real?", s.CurrentPrompt())
}

func TestAsyncBeforeStartAndAfterClose(t *testing.T) {
	ctx := context.Background()
	s := NewAsync(WithTransport(testutil.NewFakeTransport()))

	require.ErrorIs(t, s.Yes(ctx).Wait(), game.ErrNotStarted)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Nil(t, s.Transport())
	require.ErrorIs(t, s.Start(ctx, "en", false).Wait(), core.ErrClosed)
}

func TestAsyncResolveDefeat(t *testing.T) {
	ctx := context.Background()
	transport := scripted()
	s := NewAsync(WithTransport(transport))
	defer s.Close()

	require.NoError(t, s.Start(ctx, "en", false).Wait())
	require.NoError(t, s.ResolveDefeat())
	require.True(t, s.IsFinished())
	require.Equal(t, game.DefeatMessage, s.CurrentPrompt())
	require.Equal(t, 0, transport.Calls("/answer"))
}

func TestFuturePendingErr(t *testing.T) {
	f := newFuture()
	require.Nil(t, f.Err())
	select {
	case <-f.Done():
		t.Fatal("future should be pending")
	default:
	}
	f.resolve(context.DeadlineExceeded)
	require.ErrorIs(t, f.Wait(), context.DeadlineExceeded)
	require.ErrorIs(t, f.Err(), context.DeadlineExceeded)
}
