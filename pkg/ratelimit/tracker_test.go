package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func quotaHeaders(remain, reset string) http.Header {
	headers := http.Header{}
	if remain != "" {
		headers.Set(HeaderRemaining, remain)
	}
	if reset != "" {
		headers.Set(HeaderReset, reset)
	}
	return headers
}

func TestTracker_GetState_Default(t *testing.T) {
	tracker := NewTracker(Config{}, testLogger())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 100 || !state.IsHealthy {
		t.Errorf("default state = %+v, want healthy with 100 remaining", state)
	}
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	tests := []struct {
		name            string
		remainHeader    string
		resetHeader     string
		expectedRemain  int
		expectedHealthy bool
	}{
		{"healthy state", "60", "60", 60, true},
		{"warning state", "8", "30", 8, false},
		{"critical state", "1", "45", 1, false},
		{"at healthy threshold", "30", "60", 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(Config{}, testLogger())
			ctx := context.Background()

			if err := tracker.UpdateFromHeaders(ctx, quotaHeaders(tt.remainHeader, tt.resetHeader)); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.Remaining != tt.expectedRemain {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.expectedRemain)
			}
			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectedHealthy)
			}
		})
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	tracker := NewTracker(Config{}, testLogger())

	tests := []struct {
		name         string
		remainHeader string
		resetHeader  string
		shouldError  bool
	}{
		{"missing remain header", "", "60", false},
		{"invalid remain header", "invalid", "60", true},
		{"invalid reset header", "100", "invalid", true},
		{"missing reset header", "100", "", true},
		{"both headers missing", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tracker.UpdateFromHeaders(context.Background(), quotaHeaders(tt.remainHeader, tt.resetHeader))

			if tt.shouldError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestTracker_Wait(t *testing.T) {
	tests := []struct {
		name         string
		remain       string
		wantErr      error
		wantThrottle bool
	}{
		{"healthy - allow immediately", "60", nil, false},
		{"warning - allow with throttle", "5", nil, true},
		{"critical - block", "1", ErrQuotaExhausted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(Config{ThrottleDelay: 50 * time.Millisecond}, testLogger())
			ctx := context.Background()
			if err := tracker.UpdateFromHeaders(ctx, quotaHeaders(tt.remain, "60")); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			start := time.Now()
			err := tracker.Wait(ctx)
			elapsed := time.Since(start)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Wait() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantThrottle && elapsed < 40*time.Millisecond {
				t.Errorf("Wait() took %v, expected throttle delay", elapsed)
			}
			if !tt.wantThrottle && elapsed > 30*time.Millisecond {
				t.Errorf("Wait() took %v, expected no delay", elapsed)
			}
		})
	}
}

func TestTracker_Wait_ContextCancelledDuringThrottle(t *testing.T) {
	tracker := NewTracker(Config{ThrottleDelay: time.Second}, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tracker.UpdateFromHeaders(context.Background(), quotaHeaders("5", "60")); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if err := tracker.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestTracker_Wait_TokenBucket(t *testing.T) {
	// 20 rps with burst 1: the third request waits about 100ms in total.
	tracker := NewTracker(Config{RequestsPerSecond: 20, Burst: 1}, testLogger())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := tracker.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("three requests took %v, expected the bucket to pace them", elapsed)
	}
}

func TestRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	client.FlushDB(ctx)

	store := NewRedisStore(client)
	if state, err := store.Get(ctx); err != nil || state != nil {
		t.Fatalf("Get() on empty store = %v, %v; want nil, nil", state, err)
	}

	want := &QuotaState{Remaining: 7, ResetAt: time.Now().Add(time.Minute), LastUpdate: time.Now()}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7", got.Remaining)
	}
	if got.ResetAt.Unix() != want.ResetAt.Unix() {
		t.Errorf("ResetAt = %v, want %v", got.ResetAt, want.ResetAt)
	}
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil)
}
