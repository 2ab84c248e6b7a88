// Package ratelimit gates outgoing gateway requests. A token bucket
// (golang.org/x/time/rate) smooths bursts from concurrent load waves, and the
// gateway's X-RateLimit-Remaining / X-RateLimit-Reset headers are tracked so
// the client backs off before the quota runs out.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyRemaining      = "rsywx:rate_limit:remaining"
	RedisKeyResetTimestamp = "rsywx:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "rsywx:rate_limit:last_update"
)

// Thresholds for quota decisions.
const (
	// QuotaThresholdCritical blocks requests when remaining quota falls below this value.
	QuotaThresholdCritical = 2

	// QuotaThresholdWarning throttles requests when remaining quota falls below this value.
	QuotaThresholdWarning = 10

	// QuotaThresholdHealthy marks the state healthy at or above this value.
	QuotaThresholdHealthy = 30
)

// QuotaState is the last known gateway request quota.
type QuotaState struct {
	// Remaining is the X-RateLimit-Remaining header value.
	Remaining int `json:"remaining"`

	// ResetAt is derived from X-RateLimit-Reset (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= QuotaThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the gateway reports a quota.
func DefaultState() *QuotaState {
	now := time.Now()
	return &QuotaState{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state data is older than the given duration.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked until reset.
// A window that has already reset never blocks.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < QuotaThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < QuotaThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the quota resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= QuotaThresholdHealthy
}
