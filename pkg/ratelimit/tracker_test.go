package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{name: "missing", value: "", want: 0, wantOK: false},
		{name: "seconds", value: "120", want: 2 * time.Minute, wantOK: true},
		{name: "zero seconds", value: "0", want: 0, wantOK: true},
		{name: "negative", value: "-5", want: 0, wantOK: false},
		{name: "http date", value: "Wed, 01 Jan 2025 12:00:30 GMT", want: 30 * time.Second, wantOK: true},
		{name: "date in the past", value: "Wed, 01 Jan 2025 11:00:00 GMT", want: 0, wantOK: true},
		{name: "garbage", value: "soon", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			got, ok := ParseRetryAfter(h, now)
			if ok != tt.wantOK {
				t.Errorf("ParseRetryAfter() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseRetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

// localRedis connects to a Redis on localhost:6379 or skips the test.
func localRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTracker_UpdateFromResponse_IgnoresSuccess(t *testing.T) {
	redisClient := localRedis(t)
	tracker := NewTracker(redisClient, zerolog.Nop())
	ctx := context.Background()
	host := "ignore.test.local"
	defer redisClient.Del(ctx, blockedUntilKey(host), hitsKey(host), lastUpdateKey(host))

	for _, status := range []int{http.StatusOK, http.StatusForbidden, http.StatusServiceUnavailable} {
		if err := tracker.UpdateFromResponse(ctx, host, status, http.Header{}); err != nil {
			t.Fatalf("UpdateFromResponse(%d) error = %v", status, err)
		}
	}

	state, err := tracker.GetState(ctx, host)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.IsBlocked() {
		t.Errorf("IsBlocked() = true, want false")
	}
	if state.Hits != 0 {
		t.Errorf("Hits = %d, want 0", state.Hits)
	}
}

func TestTracker_WaitRejectsLongCooldown(t *testing.T) {
	redisClient := localRedis(t)
	tracker := NewTracker(redisClient, zerolog.Nop())
	ctx := context.Background()
	host := "reject.test.local"
	defer redisClient.Del(ctx, blockedUntilKey(host), hitsKey(host), lastUpdateKey(host))

	h := http.Header{}
	h.Set("Retry-After", "60")
	if err := tracker.UpdateFromResponse(ctx, host, http.StatusTooManyRequests, h); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	err := tracker.Wait(ctx, host, time.Second)
	if !errors.Is(err, ErrCoolingDown) {
		t.Errorf("Wait() error = %v, want ErrCoolingDown", err)
	}
}
