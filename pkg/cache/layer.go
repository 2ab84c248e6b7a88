package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
)

// Layer is one storage tier of the Manager. Get returns ErrCacheMiss when the
// key is absent.
type Layer interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryLayer keeps entries in a freecache ring buffer.
type MemoryLayer struct {
	cache *freecache.Cache
}

// NewMemoryLayer allocates a freecache of sizeBytes. freecache enforces a
// 512KB minimum and rejects entries larger than 1/1024 of the size.
func NewMemoryLayer(sizeBytes int) *MemoryLayer {
	return &MemoryLayer{cache: freecache.NewCache(sizeBytes)}
}

// Name implements Layer.
func (m *MemoryLayer) Name() string { return "memory" }

// Get implements Layer.
func (m *MemoryLayer) Get(_ context.Context, key string) ([]byte, error) {
	val, err := m.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

// Set implements Layer. TTLs are rounded up to whole seconds.
func (m *MemoryLayer) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	seconds := int(math.Ceil(ttl.Seconds()))
	if seconds <= 0 {
		return nil
	}
	if err := m.cache.Set([]byte(key), data, seconds); err != nil {
		return fmt.Errorf("freecache set: %w", err)
	}
	return nil
}

// Delete implements Layer.
func (m *MemoryLayer) Delete(_ context.Context, key string) error {
	m.cache.Del([]byte(key))
	return nil
}

// Keys lists the keys currently held. Used for reports only.
func (m *MemoryLayer) Keys() []string {
	var keys []string
	it := m.cache.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		keys = append(keys, string(e.Key))
	}
	return keys
}

// EntryCount returns the number of live entries.
func (m *MemoryLayer) EntryCount() int64 {
	return m.cache.EntryCount()
}

// RedisLayer stores entries in Redis, compressing large payloads.
type RedisLayer struct {
	redis      *redis.Client
	compressor Compressor
	threshold  int
}

// NewRedisLayer creates a Redis-backed layer. compressor may be nil.
func NewRedisLayer(redisClient *redis.Client, compressor Compressor, threshold int) *RedisLayer {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisLayer{
		redis:      redisClient,
		compressor: compressor,
		threshold:  threshold,
	}
}

// Name implements Layer.
func (r *RedisLayer) Name() string { return "redis" }

// Get implements Layer.
func (r *RedisLayer) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return unpack(r.compressor, data)
}

// Set implements Layer.
func (r *RedisLayer) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := pack(r.compressor, r.threshold, data)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Layer.
func (r *RedisLayer) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
