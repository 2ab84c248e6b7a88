// Package app wires configuration into a ready-to-use loader stack: the
// gateway client with its cache and rate gate, the services, the stores and
// the orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/cache"
	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/config"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/orchestrator"
	"github.com/Sternrassler/rsywx-client/pkg/perf"
	"github.com/Sternrassler/rsywx-client/pkg/ratelimit"
	"github.com/Sternrassler/rsywx-client/pkg/seo"
	"github.com/Sternrassler/rsywx-client/pkg/service"
	"github.com/Sternrassler/rsywx-client/pkg/store"
)

// App is the assembled loader stack.
type App struct {
	Config *config.Config

	// Redis is nil unless cache.redis_addr is set.
	Redis  *redis.Client
	Cache  *cache.Manager
	Client *client.Client

	BookService    *service.BookService
	ReadingService *service.ReadingService
	VisitService   *service.VisitService
	MiscService    *service.MiscService

	Books   *store.Books
	Reading *store.Reading
	Visits  *store.Visits
	Daily   *store.Daily

	Analyzer     *perf.Analyzer
	Reporter     *perf.Reporter
	Orchestrator *orchestrator.Orchestrator
	SEO          *seo.Generator

	logger zerolog.Logger
}

// New builds the stack from cfg. When Redis is configured it must answer a
// ping within ctx.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	policy, err := store.ParsePolicy(cfg.Loader.BatchPolicy)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logging.NewLogger(logging.ComponentServer)}

	if cfg.Cache.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		a.logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
	}

	cacheOpts := cache.Options{
		MemoryBytes: cfg.Cache.MemoryMB << 20,
		StaleGrace:  cfg.Cache.StaleGrace,
	}
	if a.Redis != nil {
		compressor, err := cache.NewZstdCompressor()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create compressor: %w", err)
		}
		cacheOpts.Redis = cache.NewRedisLayer(a.Redis, compressor, cfg.Cache.CompressThreshold)
	}
	a.Cache = cache.NewManager(cacheOpts)

	limiterCfg := ratelimit.Config{
		RequestsPerSecond: cfg.Gateway.RateLimit,
		Burst:             cfg.Gateway.Burst,
	}
	if a.Redis != nil {
		limiterCfg.Store = ratelimit.NewRedisStore(a.Redis)
	}
	limiter := ratelimit.NewTracker(limiterCfg, logging.NewLogger(logging.ComponentRateLimit))

	clientCfg := client.DefaultConfig(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)
	clientCfg.UserAgent = cfg.Gateway.UserAgent
	clientCfg.Timeout = cfg.Gateway.Timeout
	clientCfg.Retry.MaxAttempts = cfg.Gateway.MaxRetries
	clientCfg.Retry.InitialBackoff = cfg.Gateway.InitialBackoff
	clientCfg.DefaultTTL = cfg.Cache.DefaultTTL
	clientCfg.Cache = a.Cache
	clientCfg.RateLimiter = limiter

	a.Client, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gateway client: %w", err)
	}

	batchCfg := batch.Config{MaxConcurrency: cfg.Loader.MaxConcurrency}
	a.Analyzer = perf.NewAnalyzer()
	a.Reporter = perf.NewReporter(a.Analyzer)

	svcOpts := []service.Option{
		service.WithAnalyzer(a.Analyzer),
		service.WithBatchConfig(batchCfg),
		service.WithListCounts(cfg.Loader.RandomCount, cfg.Loader.ListCount),
	}
	a.BookService = service.NewBookService(a.Client, svcOpts...)
	a.ReadingService = service.NewReadingService(a.Client, svcOpts...)
	a.VisitService = service.NewVisitService(a.Client, svcOpts...)
	a.MiscService = service.NewMiscService(a.Client, svcOpts...)

	storeOpts := []store.Option{
		store.WithPolicy(policy),
		store.WithCounts(cfg.Loader.RandomCount, cfg.Loader.ListCount),
		store.WithVisitDays(cfg.Loader.VisitDays),
		store.WithBatchConfig(batchCfg),
	}
	a.Books = store.NewBooks(a.BookService, storeOpts...)
	a.Reading = store.NewReading(a.ReadingService, storeOpts...)
	a.Visits = store.NewVisits(a.VisitService, storeOpts...)
	a.Daily = store.NewDaily(a.MiscService, storeOpts...)

	a.Orchestrator = orchestrator.New(a.Stores(), a.Analyzer, orchestrator.Config{
		Strategy:    cfg.Loader.Strategy,
		WaveTimeout: cfg.Loader.WaveTimeout,
		Batch:       batchCfg,
	})
	a.SEO = seo.NewGenerator(seo.Site{Name: cfg.Site.Name, URL: cfg.Site.URL})

	a.logger.Info().
		Str("base_url", a.Client.BaseURL()).
		Str("strategy", cfg.Loader.Strategy).
		Str("batch_policy", cfg.Loader.BatchPolicy).
		Strs("cache_layers", a.Cache.Stats().Layers).
		Msg("Loader stack ready")
	return a, nil
}

// Stores returns the stores grouped for the orchestrator.
func (a *App) Stores() orchestrator.Stores {
	return orchestrator.Stores{Books: a.Books, Reading: a.Reading, Visits: a.Visits, Daily: a.Daily}
}

// DataStatus merges the loaded flags of every store field.
func (a *App) DataStatus() map[string]bool {
	status := a.Books.DataStatus()
	status[a.Reading.Summary.Name()] = a.Reading.Summary.State() == store.StateReady
	status[a.Reading.Latest.Name()] = a.Reading.Latest.State() == store.StateReady
	status[a.Visits.History.Name()] = a.Visits.History.State() == store.StateReady
	status[a.Daily.Wotd.Name()] = a.Daily.Wotd.State() == store.StateReady
	status[a.Daily.Qotd.Name()] = a.Daily.Qotd.State() == store.StateReady
	status[a.Daily.Weather.Name()] = a.Daily.Weather.State() == store.StateReady
	return status
}

// Report generates a performance report over the current analyzer state.
func (a *App) Report() *perf.Report {
	keys := a.Cache.Keys()
	if keys == nil {
		keys = []string{}
	}
	return a.Reporter.Generate(a.DataStatus(), perf.CacheStats{Size: len(keys), Entries: keys})
}

// SaveReport writes the current report to the configured report directory.
func (a *App) SaveReport() (txtPath, jsonPath string, err error) {
	return a.Reporter.SaveToDir(a.Report(), a.Config.Report.Dir, perf.DefaultReportBase(time.Now()))
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Close()
}
