package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// Batch field names. Stores use the same names for their entries.
const (
	FieldSummary   = "summary"
	FieldLatest    = "latest"
	FieldRandom    = "random"
	FieldRecent    = "recent"
	FieldForgotten = "forgotten"
	FieldToday     = "today"
)

// ErrBatchUnavailable means the batch produced nothing usable: the context
// ended or every call failed.
var ErrBatchUnavailable = errors.New("books batch unavailable")

// BooksBatch is the settled result of LoadBooksDataBatch. Every slot holds
// either the fetched value or its default; Errors records the failed slots.
type BooksBatch struct {
	Summary   model.BooksSummary
	Latest    model.LatestBook
	Random    []model.RandomBook
	Recent    []model.RecentBook
	Forgotten []model.ForgetBook
	Today     []model.TodayBook
	Errors    map[string]error
	Duration  time.Duration
}

// Err returns the error recorded for field, if any.
func (b *BooksBatch) Err(field string) error {
	return b.Errors[field]
}

// LoadBooksDataBatch runs the six home page book calls concurrently and
// waits for all of them. Individual failures are recorded in Errors and do
// not fail the batch; ErrBatchUnavailable is returned only when ctx is done
// or all six calls failed.
func (s *BookService) LoadBooksDataBatch(ctx context.Context) (*BooksBatch, error) {
	start := time.Now()
	out := &BooksBatch{
		Summary:   model.DefaultBooksSummary(),
		Latest:    model.DefaultLatestBook(),
		Random:    []model.RandomBook{},
		Recent:    []model.RecentBook{},
		Forgotten: []model.ForgetBook{},
		Today:     []model.TodayBook{},
		Errors:    make(map[string]error),
	}

	// Each task writes only its own slot, so no lock is needed.
	results := batch.Settle(ctx, s.batch,
		batch.Task{Name: FieldSummary, Run: func(ctx context.Context) error {
			v, err := s.fetchSummary(ctx)
			if err == nil {
				out.Summary = v
			}
			return err
		}},
		batch.Task{Name: FieldLatest, Run: func(ctx context.Context) error {
			v, err := s.fetchLatest(ctx)
			if err == nil {
				out.Latest = v
			}
			return err
		}},
		batch.Task{Name: FieldRandom, Run: func(ctx context.Context) error {
			v, err := s.fetchRandom(ctx, s.randomCount, false)
			if err == nil {
				out.Random = v
			}
			return err
		}},
		batch.Task{Name: FieldRecent, Run: func(ctx context.Context) error {
			v, err := s.fetchRecent(ctx, s.listCount)
			if err == nil {
				out.Recent = v
			}
			return err
		}},
		batch.Task{Name: FieldForgotten, Run: func(ctx context.Context) error {
			v, err := s.fetchForgotten(ctx, s.listCount)
			if err == nil {
				out.Forgotten = v
			}
			return err
		}},
		batch.Task{Name: FieldToday, Run: func(ctx context.Context) error {
			v, err := s.fetchToday(ctx)
			if err == nil {
				out.Today = v
			}
			return err
		}},
	)
	out.Errors = results.Errors()
	out.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBatchUnavailable, err)
	}
	if results.AllFailed() {
		s.logger.Error().Err(results.Err()).Msg("Every books batch call failed")
		return nil, fmt.Errorf("%w: %w", ErrBatchUnavailable, results.Err())
	}

	if failed := results.Failed(); failed > 0 {
		s.logger.Warn().
			Int("failed", failed).
			Int("total", len(results)).
			Dur("duration", out.Duration).
			Msg("Books batch settled with failures")
	} else {
		s.logger.Debug().Dur("duration", out.Duration).Msg("Books batch settled")
	}
	return out, nil
}
