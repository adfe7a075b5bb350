//go:build integration

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

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestTracker_Integration_GetState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()
	host := "steamcommunity.com"

	state, err := tracker.GetState(ctx, host)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.IsBlocked() {
		t.Error("empty state should not be blocked")
	}

	headers := http.Header{}
	headers.Set("Retry-After", "120")
	if err := tracker.UpdateFromResponse(ctx, host, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	state, err = tracker.GetState(ctx, host)
	if err != nil {
		t.Fatalf("GetState() after update error = %v", err)
	}
	if !state.IsBlocked() {
		t.Error("state should be blocked after 429")
	}
	if state.Hits != 1 {
		t.Errorf("Hits = %d, want 1", state.Hits)
	}

	expected := 120 * time.Second
	actual := state.TimeUntilReset()
	tolerance := 5 * time.Second
	if actual < expected-tolerance || actual > expected+tolerance {
		t.Errorf("TimeUntilReset = %v, want approximately %v", actual, expected)
	}
}

func TestTracker_Integration_UpdateFromResponse(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()

	tests := []struct {
		name         string
		host         string
		status       int
		retryAfter   string
		wantBlocked  bool
		wantCooldown time.Duration
	}{
		{
			name:         "429 with retry-after",
			host:         "a.example",
			status:       http.StatusTooManyRequests,
			retryAfter:   "10",
			wantBlocked:  true,
			wantCooldown: 10 * time.Second,
		},
		{
			name:         "429 without retry-after",
			host:         "b.example",
			status:       http.StatusTooManyRequests,
			wantBlocked:  true,
			wantCooldown: DefaultCooldown,
		},
		{
			name:         "retry-after capped",
			host:         "c.example",
			status:       http.StatusTooManyRequests,
			retryAfter:   "3600",
			wantBlocked:  true,
			wantCooldown: MaxCooldown,
		},
		{
			name:         "503 with retry-after",
			host:         "d.example",
			status:       http.StatusServiceUnavailable,
			retryAfter:   "15",
			wantBlocked:  true,
			wantCooldown: 15 * time.Second,
		},
		{
			name:        "503 without retry-after",
			host:        "e.example",
			status:      http.StatusServiceUnavailable,
			wantBlocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.retryAfter != "" {
				headers.Set("Retry-After", tt.retryAfter)
			}

			if err := tracker.UpdateFromResponse(ctx, tt.host, tt.status, headers); err != nil {
				t.Fatalf("UpdateFromResponse() error = %v", err)
			}

			state, err := tracker.GetState(ctx, tt.host)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.IsBlocked() != tt.wantBlocked {
				t.Errorf("IsBlocked = %v, want %v", state.IsBlocked(), tt.wantBlocked)
			}
			if tt.wantBlocked {
				remaining := state.TimeUntilReset()
				if remaining > tt.wantCooldown || remaining < tt.wantCooldown-5*time.Second {
					t.Errorf("TimeUntilReset = %v, want approximately %v", remaining, tt.wantCooldown)
				}
			}
		})
	}
}

func TestTracker_Integration_Wait(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	ctx := context.Background()
	host := "wait.example"

	headers := http.Header{}
	headers.Set("Retry-After", "1")
	if err := tracker.UpdateFromResponse(ctx, host, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	start := time.Now()
	if err := tracker.Wait(ctx, host, 5*time.Second); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if d := time.Since(start); d < 500*time.Millisecond {
		t.Errorf("Wait() returned after %v, want ~1s", d)
	}

	// Cooldown keys expire with the cooldown itself.
	state, err := tracker.GetState(ctx, host)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.IsBlocked() {
		t.Error("state should not be blocked after cooldown")
	}
}

func TestTracker_Integration_WaitCancelled(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger)
	host := "cancel.example"

	headers := http.Header{}
	headers.Set("Retry-After", "30")
	if err := tracker.UpdateFromResponse(context.Background(), host, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := tracker.Wait(ctx, host, time.Minute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}
