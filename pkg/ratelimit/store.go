package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists the last known quota. Get returns nil, nil when
// nothing has been recorded yet.
type StateStore interface {
	Get(ctx context.Context) (*QuotaState, error)
	Put(ctx context.Context, state *QuotaState) error
}

// MemoryStore keeps quota state in process.
type MemoryStore struct {
	mu    sync.RWMutex
	state *QuotaState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements StateStore.
func (m *MemoryStore) Get(_ context.Context) (*QuotaState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

// Put implements StateStore.
func (m *MemoryStore) Put(_ context.Context, state *QuotaState) error {
	s := *state
	m.mu.Lock()
	m.state = &s
	m.mu.Unlock()
	return nil
}

// RedisStore shares quota state between processes hitting the same gateway.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Get implements StateStore.
func (r *RedisStore) Get(ctx context.Context) (*QuotaState, error) {
	vals, err := r.redis.MGet(ctx, RedisKeyRemaining, RedisKeyResetTimestamp, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("get quota state: %w", err)
	}
	if vals[0] == nil {
		return nil, nil
	}

	remaining, err := strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	var resetUnix, lastUnix int64
	if vals[1] != nil {
		if resetUnix, err = strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64); err != nil {
			return nil, fmt.Errorf("parse reset timestamp: %w", err)
		}
	}
	if vals[2] != nil {
		if lastUnix, err = strconv.ParseInt(fmt.Sprint(vals[2]), 10, 64); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &QuotaState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: time.UnixMilli(lastUnix),
	}
	state.UpdateHealth()
	return state, nil
}

// Put implements StateStore. Keys expire shortly after the window resets.
func (r *RedisStore) Put(ctx context.Context, state *QuotaState) error {
	ttl := state.TimeUntilReset() + time.Minute

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.UnixMilli(), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}
	return nil
}
