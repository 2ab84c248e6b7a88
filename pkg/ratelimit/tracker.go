package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Quota headers sent by the gateway.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// ErrQuotaExhausted is returned by Wait when the gateway quota is critical.
var ErrQuotaExhausted = errors.New("gateway quota exhausted")

// Prometheus metrics for the request gate.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rsywx_ratelimit_remaining",
		Help: "Requests remaining in the current gateway quota window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsywx_ratelimit_blocks_total",
		Help: "Total number of requests blocked due to an exhausted quota",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsywx_ratelimit_throttles_total",
		Help: "Total number of requests throttled due to a low quota",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rsywx_ratelimit_wait_seconds",
		Help:    "Time spent waiting for the local token bucket",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Config configures a Tracker.
type Config struct {
	// RequestsPerSecond for the local token bucket. Zero disables it.
	RequestsPerSecond float64
	// Burst size for the token bucket.
	Burst int
	// ThrottleDelay is slept before a request in the warning range.
	ThrottleDelay time.Duration
	// Store holds quota state; nil means an in-process MemoryStore.
	Store StateStore
}

// Tracker gates requests with a token bucket and the gateway's quota headers.
type Tracker struct {
	limiter       *rate.Limiter
	store         StateStore
	throttleDelay time.Duration
	logger        zerolog.Logger
}

// NewTracker creates a new request gate.
func NewTracker(cfg Config, logger zerolog.Logger) *Tracker {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	throttle := cfg.ThrottleDelay
	if throttle <= 0 {
		throttle = time.Second
	}

	t := &Tracker{
		store:         store,
		throttleDelay: throttle,
		logger:        logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return t
}

// GetState returns the last known quota, or DefaultState when none is recorded.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	state, err := t.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No quota state recorded, assuming healthy")
		return DefaultState(), nil
	}
	return state, nil
}

// UpdateFromHeaders records the quota reported by a gateway response.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	now := time.Now()
	state := &QuotaState{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.Put(ctx, state); err != nil {
		return err
	}

	quotaRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().Int("remaining", remain).Time("reset_at", state.ResetAt).
			Msg("Gateway quota critical - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().Int("remaining", remain).Time("reset_at", state.ResetAt).
			Msg("Gateway quota low - requests will be throttled")
	default:
		t.logger.Debug().Int("remaining", remain).Bool("is_healthy", state.IsHealthy).
			Msg("Gateway quota updated")
	}

	return nil
}

// Wait blocks until a request may be sent. It returns ErrQuotaExhausted when
// the quota is critical, or the context error if ctx ends first.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		// A broken state store must not take the gateway down with it.
		t.logger.Warn().Err(err).Msg("Failed to read quota state")
		state = DefaultState()
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Gateway quota critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return fmt.Errorf("%w: resets in %s", ErrQuotaExhausted, state.TimeUntilReset().Round(time.Second))
	}

	if state.NeedsThrottling() {
		t.logger.Warn().Int("remaining", state.Remaining).Msg("Gateway quota low - throttling request")
		rateLimitThrottlesTotal.Inc()
		timer := time.NewTimer(t.throttleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if t.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}
