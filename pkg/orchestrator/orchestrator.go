// Package orchestrator decides in which order the home page data loads.
//
// The staged strategy awaits the critical data (books summary and latest
// book) and then starts every other load in a background wave. The
// concurrent strategy starts everything at once and waits for all of it.
// Neither strategy retries; failures stay in the stores' error fields.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/perf"
	"github.com/Sternrassler/rsywx-client/pkg/store"
)

// Strategies.
const (
	StrategyStaged     = "staged"
	StrategyConcurrent = "concurrent"
)

// TimerTotalLoad spans a whole load session.
const TimerTotalLoad = "Total App Load Time"

// Timer names of the critical gateway calls.
var criticalTimers = []string{"Books Summary", "Latest Book"}

// Stores groups the stores a page load fills.
type Stores struct {
	Books   *store.Books
	Reading *store.Reading
	Visits  *store.Visits
	Daily   *store.Daily
}

// Config tunes the orchestrator.
type Config struct {
	Strategy string
	// WaveTimeout bounds a background wave. Zero means 30s.
	WaveTimeout time.Duration
	Batch       batch.Config
}

// DefaultConfig returns the staged strategy with a 30s wave timeout.
func DefaultConfig() Config {
	return Config{
		Strategy:    StrategyStaged,
		WaveTimeout: 30 * time.Second,
		Batch:       batch.DefaultConfig(),
	}
}

// Orchestrator runs load sessions against a set of stores.
type Orchestrator struct {
	stores   Stores
	analyzer *perf.Analyzer
	config   Config
	logger   zerolog.Logger
}

// New creates an orchestrator. analyzer may be nil.
func New(stores Stores, analyzer *perf.Analyzer, cfg Config) *Orchestrator {
	if stores.Books == nil || stores.Reading == nil || stores.Visits == nil || stores.Daily == nil {
		panic("orchestrator: all stores are required")
	}
	if cfg.WaveTimeout <= 0 {
		cfg.WaveTimeout = DefaultConfig().WaveTimeout
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyStaged
	}
	return &Orchestrator{
		stores:   stores,
		analyzer: analyzer,
		config:   cfg,
		logger:   logging.NewLogger(logging.ComponentOrchestrator),
	}
}

// Stores returns the stores the orchestrator fills.
func (o *Orchestrator) Stores() Stores {
	return o.stores
}

// Analyzer returns the attached analyzer, possibly nil.
func (o *Orchestrator) Analyzer() *perf.Analyzer {
	return o.analyzer
}

// LoadCriticalData loads books summary and latest book concurrently and
// waits for both.
func (o *Orchestrator) LoadCriticalData(ctx context.Context) error {
	return o.loadCritical(ctx, o.logger)
}

func (o *Orchestrator) loadCritical(ctx context.Context, logger zerolog.Logger) error {
	logger.Info().Msg("Loading critical data")
	start := time.Now()
	o.startPhase(perf.PhaseCriticalData)

	err := o.stores.Books.InitializeKeyData(ctx)

	o.endPhase(perf.PhaseCriticalData)
	if o.analyzer != nil {
		for _, name := range criticalTimers {
			o.analyzer.MarkCritical(name)
		}
	}
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Critical data load failed")
		return err
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("Critical data loaded")
	return nil
}

// LoadNonCriticalData loads the books batch, reading, visits and daily
// content concurrently and waits for all of them.
func (o *Orchestrator) LoadNonCriticalData(ctx context.Context) error {
	return o.loadNonCritical(ctx, o.logger)
}

func (o *Orchestrator) loadNonCritical(ctx context.Context, logger zerolog.Logger) error {
	logger.Info().Msg("Loading non-critical data")
	start := time.Now()
	o.startPhase(perf.PhaseNonCriticalData)

	s := o.stores
	results := batch.Settle(ctx, o.config.Batch,
		batch.Task{Name: "books", Run: s.Books.LoadAllOptimized},
		batch.Task{Name: "reading", Run: s.Reading.LoadAll},
		batch.Task{Name: "visits", Run: s.Visits.LoadHistory},
		batch.Task{Name: "qotd", Run: s.Daily.FetchQotd},
		batch.Task{Name: "wotd", Run: s.Daily.FetchWotd},
		batch.Task{Name: "weather", Run: s.Daily.FetchWeather},
	)

	o.endPhase(perf.PhaseNonCriticalData)
	logger.Info().
		Int("failed", results.Failed()).
		Dur("duration", time.Since(start)).
		Msg("Non-critical data settled")
	return results.Err()
}

// LoadAllData runs the staged strategy. It returns once the critical data
// settled; the rest loads in a background wave that outlives ctx's
// cancellation and is bounded by the wave timeout.
func (o *Orchestrator) LoadAllData(ctx context.Context) *Wave {
	wave, logger := o.beginSession()
	logger.Info().Str("strategy", StrategyStaged).Msg("Starting load session")

	criticalErr := o.loadCritical(ctx, logger)
	wave.mu.Lock()
	wave.criticalErr = criticalErr
	wave.mu.Unlock()

	waveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.WaveTimeout)
	go func() {
		defer cancel()
		err := o.loadNonCritical(waveCtx, logger)
		o.endSession(wave, err, logger)
	}()

	logger.Info().Msg("Critical data settled, non-critical wave running in background")
	return wave
}

// LoadAllDataConcurrent starts every load at once and waits for all of them.
// The returned wave is already settled.
func (o *Orchestrator) LoadAllDataConcurrent(ctx context.Context) *Wave {
	wave, logger := o.beginSession()
	logger.Info().Str("strategy", StrategyConcurrent).Msg("Starting load session")

	s := o.stores
	o.startPhase(perf.PhaseAPICalls)
	results := batch.Settle(ctx, o.config.Batch,
		batch.Task{Name: "books.critical", Run: s.Books.InitializeKeyData},
		batch.Task{Name: "books.lists", Run: s.Books.LoadAllNonCritical},
		batch.Task{Name: "reading", Run: s.Reading.LoadAll},
		batch.Task{Name: "visits", Run: s.Visits.LoadHistory},
		batch.Task{Name: "qotd", Run: s.Daily.FetchQotd},
		batch.Task{Name: "wotd", Run: s.Daily.FetchWotd},
		batch.Task{Name: "weather", Run: s.Daily.FetchWeather},
	)
	o.endPhase(perf.PhaseAPICalls)

	wave.mu.Lock()
	wave.criticalErr = results[0].Err
	wave.mu.Unlock()
	o.endSession(wave, results.Err(), logger)
	return wave
}

// Load dispatches to the configured strategy.
func (o *Orchestrator) Load(ctx context.Context) (*Wave, error) {
	switch o.config.Strategy {
	case StrategyStaged:
		return o.LoadAllData(ctx), nil
	case StrategyConcurrent:
		return o.LoadAllDataConcurrent(ctx), nil
	default:
		return nil, fmt.Errorf("unknown load strategy %q", o.config.Strategy)
	}
}

func (o *Orchestrator) beginSession() (*Wave, zerolog.Logger) {
	session := uuid.NewString()
	if o.analyzer != nil {
		o.analyzer.StartPageLoad()
		o.analyzer.Phases().StartAnalysis()
		o.analyzer.Start(TimerTotalLoad, perf.CategoryProcessing)
	}
	return newWave(session, time.Now()), logging.WithSession(o.logger, session)
}

func (o *Orchestrator) endSession(wave *Wave, err error, logger zerolog.Logger) {
	if o.analyzer != nil {
		o.analyzer.End(TimerTotalLoad, err)
		o.analyzer.LogSummary()
	}
	wave.finish(err)
	logger.Info().Dur("duration", wave.Duration()).Bool("errors", err != nil).Msg("Load session settled")
}

func (o *Orchestrator) startPhase(name string) {
	if o.analyzer != nil {
		o.analyzer.Phases().StartPhase(name)
	}
}

func (o *Orchestrator) endPhase(name string) {
	if o.analyzer != nil {
		o.analyzer.Phases().EndPhase(name)
	}
}
