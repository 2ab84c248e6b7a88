package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds executor configuration
type Config struct {
	// MaxConcurrency is the maximum number of tasks in flight. Zero means
	// one goroutine per task.
	MaxConcurrency int
	// Timeout per task. Zero means only the caller's context applies.
	Timeout time.Duration
}

// DefaultConfig returns the executor defaults: six tasks in flight, no
// per-task timeout (the gateway client applies its own).
func DefaultConfig() Config {
	return Config{MaxConcurrency: 6}
}

// Task is one named unit of work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result is the settled outcome of one task.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Results holds outcomes in task order.
type Results []Result

// Failed returns the number of failed tasks.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// AllFailed reports whether there was at least one task and every task failed.
func (rs Results) AllFailed() bool {
	return len(rs) > 0 && rs.Failed() == len(rs)
}

// Errors maps task names to their errors, skipping successes.
func (rs Results) Errors() map[string]error {
	out := make(map[string]error)
	for _, r := range rs {
		if r.Err != nil {
			out[r.Name] = r.Err
		}
	}
	return out
}

// Err joins every task error, or returns nil when all succeeded.
func (rs Results) Err() error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Settle runs every task and returns once all have finished. It never
// short-circuits: a failed task does not cancel the others. Tasks not yet
// started when ctx ends are recorded with ctx.Err().
func Settle(ctx context.Context, cfg Config, tasks ...Task) Results {
	start := time.Now()
	results := make(Results, len(tasks))

	var g errgroup.Group
	if cfg.MaxConcurrency > 0 {
		g.SetLimit(cfg.MaxConcurrency)
	}

	for i, task := range tasks {
		i, task := i, task
		results[i].Name = task.Name
		g.Go(func() error {
			results[i] = runTask(ctx, cfg.Timeout, task)
			return nil
		})
	}

	// Every goroutine returns nil; Wait only synchronises.
	_ = g.Wait()

	failed := results.Failed()
	event := log.Debug()
	if failed > 0 {
		event = log.Info()
	}
	event.
		Int("tasks", len(tasks)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch settled")

	return results
}

func runTask(ctx context.Context, timeout time.Duration, task Task) (res Result) {
	res.Name = task.Name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			log.Warn().
				Err(res.Err).
				Str("task", task.Name).
				Dur("duration", res.Duration).
				Msg("Batch task failed")
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res.Err = task.Run(taskCtx)
	return res
}
