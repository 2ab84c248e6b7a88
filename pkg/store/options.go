package store

import (
	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Option configures a store.
type Option func(*settings)

type settings struct {
	policy      Policy
	randomCount int
	listCount   int
	visitDays   int
	batch       batch.Config
	logger      zerolog.Logger
}

func newSettings(domain string, opts []Option) settings {
	s := settings{
		policy:      PolicyAttempted,
		randomCount: 4,
		listCount:   5,
		visitDays:   30,
		batch:       batch.DefaultConfig(),
		logger:      logging.NewLogger(logging.ComponentStore),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = s.logger.With().Str("domain", domain).Logger()
	return s
}

// WithPolicy sets the batch policy.
func WithPolicy(p Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithCounts sets list sizes. Non-positive values keep the defaults.
func WithCounts(random, list int) Option {
	return func(s *settings) {
		if random > 0 {
			s.randomCount = random
		}
		if list > 0 {
			s.listCount = list
		}
	}
}

// WithVisitDays sets the visit history window.
func WithVisitDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.visitDays = days
		}
	}
}

// WithBatchConfig sets the executor for all-settled loads.
func WithBatchConfig(cfg batch.Config) Option {
	return func(s *settings) { s.batch = cfg }
}

// WithLogger replaces the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}
