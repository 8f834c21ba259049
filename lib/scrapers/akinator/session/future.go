package session

import "context"

// Future is the pending result of an AsyncSession operation.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func failedFuture(err error) *Future {
	f := newFuture()
	f.resolve(err)
	return f
}

func (f *Future) resolve(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the operation has completed or failed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation has finished and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// WaitContext stops waiting when ctx is done. The operation itself keeps
// going, it completes or fails on its own.
func (f *Future) WaitContext(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the operation's error, it is nil while the operation is pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
