package orchestrator

import (
	"context"
	"sync"
	"time"
)

// Wave is a load running in the background. All methods are safe for
// concurrent use.
type Wave struct {
	Session string

	done  chan struct{}
	start time.Time

	mu          sync.Mutex
	err         error
	criticalErr error
	duration    time.Duration
}

func newWave(session string, start time.Time) *Wave {
	return &Wave{Session: session, start: start, done: make(chan struct{})}
}

func (w *Wave) finish(err error) {
	w.mu.Lock()
	w.err = err
	w.duration = time.Since(w.start)
	w.mu.Unlock()
	close(w.done)
}

// Done is closed once the wave settled.
func (w *Wave) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the wave settles or ctx ends, returning the wave's
// joined load errors or ctx.Err().
func (w *Wave) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the joined load errors once settled, nil before.
func (w *Wave) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// CriticalErr returns the error of the awaited critical stage, if any.
func (w *Wave) CriticalErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.criticalErr
}

// Duration is the wall-clock time from session start to settle, zero while
// running.
func (w *Wave) Duration() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.duration
}
