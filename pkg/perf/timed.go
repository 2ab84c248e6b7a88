package perf

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
)

// Timed runs fn inside the timer name. A nil analyzer just runs fn.
func Timed[T any](a *Analyzer, name string, category Category, fn func() (T, error)) (T, error) {
	if a == nil {
		return fn()
	}
	a.Start(name, category)
	v, err := fn()
	a.End(name, err)
	return v, err
}

// MeasureConcurrent runs ops concurrently under one timer and waits for all
// of them. Values and errors are positional; a failed op leaves the zero
// value in its slot. The timer itself always completes.
func MeasureConcurrent[T any](ctx context.Context, a *Analyzer, name string, ops ...func(context.Context) (T, error)) ([]T, []error) {
	values := make([]T, len(ops))
	errs := make([]error, len(ops))

	tasks := make([]batch.Task, len(ops))
	for i, op := range ops {
		i, op := i, op
		tasks[i] = batch.Task{
			Name: name,
			Run: func(ctx context.Context) error {
				v, err := op(ctx)
				if err == nil {
					values[i] = v
				}
				return err
			},
		}
	}

	if a != nil {
		a.Start(name, CategoryAPI)
	}
	results := batch.Settle(ctx, batch.Config{MaxConcurrency: len(ops)}, tasks...)
	if a != nil {
		a.End(name, nil)
	}

	for i, r := range results {
		errs[i] = r.Err
	}
	return values, errs
}
