//go:build integration

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestTracker_Integration_SharedState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	writer := NewTracker(Config{Store: NewRedisStore(redisClient)}, testLogger())
	reader := NewTracker(Config{Store: NewRedisStore(redisClient)}, testLogger())

	state, err := reader.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.IsHealthy {
		t.Error("Default state should be healthy")
	}

	if err := writer.UpdateFromHeaders(ctx, quotaHeaders("1", "120")); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err = reader.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() after update error = %v", err)
	}
	if state.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", state.Remaining)
	}

	actual := state.TimeUntilReset()
	if actual < 115*time.Second || actual > 125*time.Second {
		t.Errorf("TimeUntilReset = %v, want approximately 120s", actual)
	}

	if err := reader.Wait(ctx); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("Wait() error = %v, want ErrQuotaExhausted", err)
	}
}

func TestTracker_Integration_StateReset(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	tracker := NewTracker(Config{Store: NewRedisStore(redisClient)}, testLogger())

	if err := tracker.UpdateFromHeaders(ctx, quotaHeaders("0", "2")); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	if err := tracker.Wait(ctx); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("Wait() error = %v, want ErrQuotaExhausted", err)
	}

	time.Sleep(3 * time.Second)

	if err := tracker.Wait(ctx); err != nil {
		t.Errorf("Wait() after reset error = %v, want nil", err)
	}
}
