package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Options configures a Manager. A zero MemoryBytes and nil Redis yields a
// manager that never stores anything.
type Options struct {
	// MemoryBytes sizes the freecache layer. Zero disables it.
	MemoryBytes int

	// Redis is an optional second layer shared across processes.
	Redis Layer

	// StaleGrace keeps expired entries around this long so they can be
	// revalidated with If-None-Match / If-Modified-Since.
	StaleGrace time.Duration
}

// Stats is a point-in-time view of the manager.
type Stats struct {
	MemoryEntries int64    `json:"memory_entries"`
	Layers        []string `json:"layers"`
}

// Manager stores cache entries in up to two layers, memory first.
type Manager struct {
	memory     *MemoryLayer
	layers     []Layer
	staleGrace time.Duration
}

// NewManager creates a cache manager from opts.
func NewManager(opts Options) *Manager {
	m := &Manager{staleGrace: opts.StaleGrace}
	if opts.MemoryBytes > 0 {
		m.memory = NewMemoryLayer(opts.MemoryBytes)
		m.layers = append(m.layers, m.memory)
	}
	if opts.Redis != nil {
		m.layers = append(m.layers, opts.Redis)
	}
	return m
}

// Enabled reports whether any layer is configured.
func (m *Manager) Enabled() bool {
	return m != nil && len(m.layers) > 0
}

// Get retrieves a fresh cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	entry, err := m.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired() {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Lookup retrieves an entry even if it is expired, so the caller can
// revalidate it. Returns ErrCacheMiss if no layer holds the key.
func (m *Manager) Lookup(ctx context.Context, key Key) (*Entry, error) {
	if !m.Enabled() {
		return nil, ErrCacheMiss
	}
	cacheKey := key.String()

	for i, layer := range m.layers {
		data, err := layer.Get(ctx, cacheKey)
		if err != nil {
			if !errors.Is(err, ErrCacheMiss) {
				CacheErrors.WithLabelValues("get").Inc()
			}
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			CacheErrors.WithLabelValues("decode").Inc()
			_ = layer.Delete(ctx, cacheKey)
			continue
		}

		CacheHits.WithLabelValues(layer.Name()).Inc()
		if entry.IsExpired() {
			StaleHits.Inc()
		}

		// Backfill faster layers.
		for _, upper := range m.layers[:i] {
			_ = upper.Set(ctx, cacheKey, data, m.storeTTL(&entry))
		}
		return &entry, nil
	}

	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

// Set stores a cache entry in every layer. The entry is kept for its
// remaining TTL plus the stale grace period.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if !m.Enabled() {
		return nil
	}

	ttl := m.storeTTL(entry)
	if ttl <= 0 {
		// Already expired and past grace, don't cache
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	cacheKey := key.String()
	var errs []error
	for _, layer := range m.layers {
		if err := layer.Set(ctx, cacheKey, data, ttl); err != nil {
			CacheErrors.WithLabelValues("set").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", layer.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Delete removes a cache entry from every layer.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if !m.Enabled() {
		return nil
	}
	cacheKey := key.String()
	var errs []error
	for _, layer := range m.layers {
		if err := layer.Delete(ctx, cacheKey); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", layer.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// UpdateTTL updates the expiry of an existing cache entry, including a
// stale one. Used after a 304 Not Modified response.
func (m *Manager) UpdateTTL(ctx context.Context, key Key, newExpires time.Time) error {
	entry, err := m.Lookup(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = newExpires
	entry.CachedAt = time.Now()

	return m.Set(ctx, key, entry)
}

// Stats reports layer names and the memory entry count.
func (m *Manager) Stats() Stats {
	var s Stats
	if m == nil {
		return s
	}
	for _, layer := range m.layers {
		s.Layers = append(s.Layers, layer.Name())
	}
	if m.memory != nil {
		s.MemoryEntries = m.memory.EntryCount()
	}
	return s
}

// Keys lists keys held in the memory layer.
func (m *Manager) Keys() []string {
	if m == nil || m.memory == nil {
		return nil
	}
	return m.memory.Keys()
}

func (m *Manager) storeTTL(entry *Entry) time.Duration {
	return time.Until(entry.Expires) + m.staleGrace
}
