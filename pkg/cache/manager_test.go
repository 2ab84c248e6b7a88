package cache

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when none is
// running. The integration build tag covers the containerised variant.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func newMemoryManager(staleGrace time.Duration) *Manager {
	return NewManager(Options{MemoryBytes: 8 << 20, StaleGrace: staleGrace})
}

func TestNewManager(t *testing.T) {
	m := newMemoryManager(0)
	if !m.Enabled() {
		t.Fatal("manager with memory layer should be enabled")
	}
	if got := m.Stats().Layers; len(got) != 1 || got[0] != "memory" {
		t.Errorf("Layers = %v, want [memory]", got)
	}
}

func TestNewManager_Disabled(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	key := Key{Endpoint: "/books/status"}

	if m.Enabled() {
		t.Fatal("manager without layers should be disabled")
	}
	if err := m.Set(ctx, key, &Entry{Data: []byte("x"), Expires: time.Now().Add(time.Minute)}); err != nil {
		t.Errorf("Set on disabled manager: %v", err)
	}
	if _, err := m.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on disabled manager = %v, want ErrCacheMiss", err)
	}
	if err := m.Delete(ctx, key); err != nil {
		t.Errorf("Delete on disabled manager: %v", err)
	}
}

func TestManager_SetAndGet(t *testing.T) {
	manager := newMemoryManager(0)
	ctx := context.Background()

	key := Key{Endpoint: "/books/status"}
	entry := &Entry{
		Data:         []byte(`{"success":true,"data":{"bc":10,"pc":"500","wc":"200","vc":5}}`),
		ETag:         `"abc123"`,
		Expires:      time.Now().Add(5 * time.Minute),
		LastModified: time.Now().Add(-1 * time.Hour),
		StatusCode:   200,
		Headers:      http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:     time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag mismatch: got %s, want %s", retrieved.ETag, entry.ETag)
	}
	if retrieved.StatusCode != entry.StatusCode {
		t.Errorf("StatusCode mismatch: got %d, want %d", retrieved.StatusCode, entry.StatusCode)
	}
	if keys := manager.Keys(); len(keys) != 1 || keys[0] != key.String() {
		t.Errorf("Keys() = %v, want [%s]", keys, key.String())
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := newMemoryManager(0)

	_, err := manager.Get(context.Background(), Key{Endpoint: "/books/nonexistent"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_ExpiredEntry(t *testing.T) {
	manager := newMemoryManager(0)
	ctx := context.Background()
	key := Key{Endpoint: "/books/latest/1"}

	entry := &Entry{
		Data:    []byte(`{"success":true,"data":[]}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Lookup(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected expired entry past grace to be dropped, got %v", err)
	}
}

func TestManager_Lookup_Stale(t *testing.T) {
	manager := newMemoryManager(10 * time.Minute)
	ctx := context.Background()
	key := Key{Endpoint: "/misc/wotd"}

	entry := &Entry{
		Data:    []byte(`{"success":true,"data":{"word":"ephemeral"}}`),
		ETag:    `"w1"`,
		Expires: time.Now().Add(-1 * time.Second),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get should not return stale entries, got %v", err)
	}

	stale, err := manager.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !stale.IsExpired() {
		t.Error("Lookup should return the expired entry as-is")
	}
	if !ShouldMakeConditionalRequest(stale) {
		t.Error("stale entry with ETag should allow a conditional request")
	}
}

func TestManager_Delete(t *testing.T) {
	manager := newMemoryManager(0)
	ctx := context.Background()
	key := Key{Endpoint: "/readings/summary"}

	entry := &Entry{
		Data:    []byte(`{"success":true,"data":{}}`),
		Expires: time.Now().Add(5 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); err != nil {
		t.Fatalf("Get after Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_UpdateTTL(t *testing.T) {
	manager := newMemoryManager(10 * time.Minute)
	ctx := context.Background()
	key := Key{Endpoint: "/books/status"}

	// Stale entry revived by a 304
	entry := &Entry{
		Data:    []byte(`{"success":true,"data":{}}`),
		Expires: time.Now().Add(-5 * time.Second),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	newExpires := time.Now().Add(10 * time.Minute)
	if err := manager.UpdateTTL(ctx, key, newExpires); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after UpdateTTL failed: %v", err)
	}

	diff := retrieved.Expires.Sub(newExpires)
	if diff < -1*time.Second || diff > 1*time.Second {
		t.Errorf("Expires time not updated correctly: got %v, want %v (diff: %v)",
			retrieved.Expires, newExpires, diff)
	}
}

func TestManager_UpdateTTL_Missing(t *testing.T) {
	manager := newMemoryManager(0)
	err := manager.UpdateTTL(context.Background(), Key{Endpoint: "/nope"}, time.Now().Add(time.Minute))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := newMemoryManager(0)

	if err := manager.Set(context.Background(), Key{Endpoint: "/books/status"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestManager_Redis_BackfillsMemory(t *testing.T) {
	client := setupTestRedis(t)
	compressor, err := NewZstdCompressor()
	if err != nil {
		t.Fatalf("NewZstdCompressor: %v", err)
	}
	redisLayer := NewRedisLayer(client, compressor, 64)
	ctx := context.Background()
	key := Key{Endpoint: "/books/visit_history", Scope: "test"}

	writer := NewManager(Options{Redis: redisLayer})
	entry := &Entry{
		Data:    []byte(`{"success":true,"data":[` + strings.Repeat(`{"date":"2024-01-01","visit_count":3},`, 20) + `{}]}`),
		Expires: time.Now().Add(time.Minute),
	}
	if err := writer.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reader := NewManager(Options{MemoryBytes: 8 << 20, Redis: redisLayer})
	got, err := reader.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get via redis failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) {
		t.Error("payload changed across redis round trip")
	}
	if reader.Stats().MemoryEntries != 1 {
		t.Errorf("memory layer not backfilled, entries = %d", reader.Stats().MemoryEntries)
	}
}

func TestNewRedisLayer_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisLayer should panic with nil redis client")
		}
	}()
	NewRedisLayer(nil, nil, 0)
}
