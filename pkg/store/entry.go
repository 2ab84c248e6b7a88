// Package store keeps per-field load state for the home page data.
//
// Every field is an Entry: Empty until its first load, Loading while a fetch
// is in flight, then Ready or Failed. Load is guarded so repeated or
// concurrent calls issue a single request; Refresh always fetches.
package store

import (
	"context"
	"fmt"
	"sync"
)

// State is the lifecycle state of an Entry.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Policy decides whether a field whose batch call failed counts as loaded.
type Policy int

const (
	// PolicyAttempted marks every settled field loaded, failed or not.
	PolicyAttempted Policy = iota
	// PolicySucceeded marks only successful fields loaded, so a later Load
	// retries the failed ones.
	PolicySucceeded
)

// ParsePolicy maps "attempted" and "succeeded" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "attempted":
		return PolicyAttempted, nil
	case "succeeded":
		return PolicySucceeded, nil
	default:
		return PolicyAttempted, fmt.Errorf("unknown batch policy %q", s)
	}
}

// Fetch loads a value. On error the returned value is kept as the fallback.
type Fetch[T any] func(ctx context.Context) (T, error)

// Entry holds one field. It is safe for concurrent use.
type Entry[T any] struct {
	mu     sync.Mutex
	name   string
	state  State
	value  T
	err    error
	loaded bool
}

// NewEntry creates an empty entry holding def until the first load.
func NewEntry[T any](name string, def T) *Entry[T] {
	return &Entry[T]{name: name, value: def}
}

// Name returns the field name used in logs and metrics.
func (e *Entry[T]) Name() string { return e.name }

// Load fetches once. It returns immediately when the entry is already
// loaded or a fetch is in flight. A failure leaves the entry unloaded so a
// later Load retries.
func (e *Entry[T]) Load(ctx context.Context, fetch Fetch[T]) error {
	e.mu.Lock()
	if e.loaded || e.state == StateLoading {
		e.mu.Unlock()
		storeLoadsTotal.WithLabelValues(e.name, resultSkipped).Inc()
		return nil
	}
	e.state = StateLoading
	e.mu.Unlock()

	v, err := fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
	if err != nil {
		e.state = StateFailed
		e.err = err
		storeLoadsTotal.WithLabelValues(e.name, resultFailed).Inc()
		return err
	}
	e.state = StateReady
	e.err = nil
	e.loaded = true
	storeLoadsTotal.WithLabelValues(e.name, resultOK).Inc()
	return nil
}

// Refresh always fetches, ignoring the guard. A failure records the error
// and keeps the previous value; the loaded flag is never cleared.
func (e *Entry[T]) Refresh(ctx context.Context, fetch Fetch[T]) error {
	e.mu.Lock()
	e.state = StateLoading
	e.mu.Unlock()

	v, err := fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateFailed
		e.err = err
		storeLoadsTotal.WithLabelValues(e.name, resultFailed).Inc()
		return err
	}
	e.value = v
	e.state = StateReady
	e.err = nil
	e.loaded = true
	storeLoadsTotal.WithLabelValues(e.name, resultOK).Inc()
	return nil
}

// Settle applies a result obtained elsewhere, typically a batch slot. value
// is stored either way; err decides the state and, with policy, the flag.
func (e *Entry[T]) Settle(value T, err error, policy Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.value = value
	if err != nil {
		e.state = StateFailed
		e.err = err
		e.loaded = policy == PolicyAttempted
		storeLoadsTotal.WithLabelValues(e.name, resultFailed).Inc()
		return
	}
	e.state = StateReady
	e.err = nil
	e.loaded = true
	storeLoadsTotal.WithLabelValues(e.name, resultOK).Inc()
}

// Reset clears the loaded flag so the next Load fetches again. Value and
// error are kept for rendering.
func (e *Entry[T]) Reset() {
	e.mu.Lock()
	e.loaded = false
	e.mu.Unlock()
}

// Value returns the current value.
func (e *Entry[T]) Value() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Err returns the last error, or nil after a success.
func (e *Entry[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// State returns the lifecycle state.
func (e *Entry[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Loaded reports the guard flag.
func (e *Entry[T]) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Snapshot is a read-only copy of an entry for presentation.
type Snapshot[T any] struct {
	Value  T      `json:"value"`
	State  State  `json:"state"`
	Error  string `json:"error,omitempty"`
	Loaded bool   `json:"loaded"`
}

// Snapshot copies the entry.
func (e *Entry[T]) Snapshot() Snapshot[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot[T]{Value: e.value, State: e.state, Loaded: e.loaded}
	if e.err != nil {
		s.Error = e.err.Error()
	}
	return s
}
