// Package service maps gateway endpoints to domain records.
//
// Critical loads (books summary, latest book, book detail, reading, visits)
// log and return their error. Optional widgets (random, recent, forgotten
// and today lists, weather, word and quote of the day) log and return an
// empty default with a nil error so a failing widget never aborts a page.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/perf"
	"github.com/rs/zerolog"
)

// Gateway is the part of *client.Client the services use.
type Gateway interface {
	GetJSON(ctx context.Context, path string, dst any, opts ...client.RequestOption) (client.Meta, error)
	GetBareJSON(ctx context.Context, path string, dst any, opts ...client.RequestOption) error
}

// Default list sizes for the home page.
const (
	DefaultRandomCount = 4
	DefaultListCount   = 5
	DefaultVisitDays   = 30
)

// Option configures a service.
type Option func(*base)

// WithAnalyzer times every gateway call on a.
func WithAnalyzer(a *perf.Analyzer) Option {
	return func(b *base) { b.analyzer = a }
}

// WithClock replaces time.Now for refresh timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *base) { b.logger = l }
}

// WithBatchConfig sets the executor used by LoadBooksDataBatch.
func WithBatchConfig(cfg batch.Config) Option {
	return func(b *base) { b.batch = cfg }
}

// WithListCounts sets how many random books and how many recent/forgotten
// books the batch loads. Non-positive values keep the defaults.
func WithListCounts(random, list int) Option {
	return func(b *base) {
		if random > 0 {
			b.randomCount = random
		}
		if list > 0 {
			b.listCount = list
		}
	}
}

type base struct {
	gw          Gateway
	analyzer    *perf.Analyzer
	logger      zerolog.Logger
	now         func() time.Time
	batch       batch.Config
	randomCount int
	listCount   int
}

func newBase(gw Gateway, logger zerolog.Logger, opts []Option) base {
	if gw == nil {
		panic("service: gateway cannot be nil")
	}
	b := base{
		gw:          gw,
		logger:      logger,
		now:         time.Now,
		batch:       batch.DefaultConfig(),
		randomCount: DefaultRandomCount,
		listCount:   DefaultListCount,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// fetch decodes the envelope data of path into a T under the timer name.
func fetch[T any](ctx context.Context, b *base, name, path string, opts ...client.RequestOption) (T, error) {
	return perf.Timed(b.analyzer, name, perf.CategoryAPI, func() (T, error) {
		var v T
		if _, err := b.gw.GetJSON(ctx, path, &v, opts...); err != nil {
			return v, fmt.Errorf("fetch %s: %w", name, err)
		}
		return v, nil
	})
}

// fetchList is fetch for array endpoints; the result is never nil.
func fetchList[T any](ctx context.Context, b *base, name, path string, opts ...client.RequestOption) ([]T, error) {
	items, err := fetch[[]T](ctx, b, name, path, opts...)
	if err != nil {
		return []T{}, err
	}
	if items == nil {
		return []T{}, nil
	}
	return items, nil
}

// timedMeta is fetch for callers that need the envelope metadata.
func timedMeta(ctx context.Context, b *base, name, path string, dst any, opts ...client.RequestOption) (client.Meta, error) {
	return perf.Timed(b.analyzer, name, perf.CategoryAPI, func() (client.Meta, error) {
		meta, err := b.gw.GetJSON(ctx, path, dst, opts...)
		if err != nil {
			return meta, fmt.Errorf("fetch %s: %w", name, err)
		}
		return meta, nil
	})
}

// first returns the first element of items, or def when there is none.
func first[T any](items []T, def T) T {
	if len(items) == 0 {
		return def
	}
	return items[0]
}

func (b *base) logCritical(err error, what, path string) {
	b.logger.Error().
		Err(err).
		Str("endpoint", path).
		Str("error_class", string(client.ClassOf(err))).
		Msgf("Failed to fetch %s", what)
}

func (b *base) logOptional(err error, what, path string) {
	b.logger.Warn().
		Err(err).
		Str("endpoint", path).
		Str("error_class", string(client.ClassOf(err))).
		Msgf("Failed to fetch %s, using default", what)
}
