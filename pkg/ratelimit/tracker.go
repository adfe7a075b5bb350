package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCoolingDown is returned by Wait when the remaining cooldown exceeds the
// caller's wait budget.
var ErrCoolingDown = errors.New("host cooling down")

// Prometheus metrics for cooldown tracking.
var (
	inventoryCooldownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_rate_limit_cooldowns_total",
		Help: "Total number of provider cooldowns recorded by host",
	}, []string{"host"})

	inventoryCooldownWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting for a host cooldown",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"host"})

	inventoryCooldownRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_rate_limit_rejects_total",
		Help: "Total number of requests rejected because a cooldown outlasted the wait budget",
	}, []string{"host"})
)

// Tracker records provider cooldowns in Redis and gates requests on them.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new cooldown tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the cooldown state of host from Redis.
// Returns an unblocked state if no data exists.
func (t *Tracker) GetState(ctx context.Context, host string) (*CooldownState, error) {
	state := &CooldownState{Host: host}

	blockedUntil, err := t.redis.Get(ctx, blockedUntilKey(host)).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}
	if err == nil {
		state.BlockedUntil = time.UnixMilli(blockedUntil)
	}

	hits, err := t.redis.Get(ctx, hitsKey(host)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get hits: %w", err)
	}
	state.Hits = hits

	lastUpdate, err := t.redis.Get(ctx, lastUpdateKey(host)).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}
	if err == nil {
		state.LastUpdate = time.UnixMilli(lastUpdate)
	}

	return state, nil
}

// UpdateFromResponse records a cooldown for host when the response signals
// rate limiting (429, or 503 with Retry-After). Other responses are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, host string, statusCode int, headers http.Header) error {
	retryAfter, hasRetryAfter := ParseRetryAfter(headers, time.Now())

	switch {
	case statusCode == http.StatusTooManyRequests:
		if !hasRetryAfter {
			retryAfter = DefaultCooldown
		}
	case statusCode == http.StatusServiceUnavailable && hasRetryAfter:
	default:
		return nil
	}

	if retryAfter > MaxCooldown {
		retryAfter = MaxCooldown
	}

	now := time.Now()
	blockedUntil := now.Add(retryAfter)

	// Store atomically; keys expire with the cooldown itself.
	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, blockedUntilKey(host), blockedUntil.UnixMilli(), retryAfter)
	pipe.Incr(ctx, hitsKey(host))
	pipe.Expire(ctx, hitsKey(host), hitsWindow)
	pipe.Set(ctx, lastUpdateKey(host), now.UnixMilli(), hitsWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store cooldown in redis: %w", err)
	}

	inventoryCooldownsTotal.WithLabelValues(host).Inc()

	t.logger.Warn().
		Str("host", host).
		Int("status", statusCode).
		Dur("cooldown", retryAfter).
		Time("blocked_until", blockedUntil).
		Msg("Provider rate limited - cooldown recorded")

	return nil
}

// Wait blocks until host is out of cooldown. If the remaining cooldown is
// longer than maxWait it returns ErrCoolingDown immediately.
func (t *Tracker) Wait(ctx context.Context, host string, maxWait time.Duration) error {
	state, err := t.GetState(ctx, host)
	if err != nil {
		return fmt.Errorf("get cooldown state: %w", err)
	}

	wait := state.TimeUntilReset()
	if wait <= 0 {
		return nil
	}

	if wait > maxWait {
		inventoryCooldownRejectsTotal.WithLabelValues(host).Inc()
		t.logger.Warn().
			Str("host", host).
			Dur("remaining", wait).
			Dur("max_wait", maxWait).
			Msg("Host cooldown exceeds wait budget - rejecting request")
		return fmt.Errorf("%w: %s for another %s", ErrCoolingDown, host, wait.Round(time.Second))
	}

	t.logger.Debug().
		Str("host", host).
		Dur("wait", wait).
		Msg("Waiting for host cooldown")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	inventoryCooldownWaitSeconds.WithLabelValues(host).Observe(wait.Seconds())
	return nil
}

// ParseRetryAfter reads the Retry-After header as delay-seconds or an
// HTTP-date relative to now.
func ParseRetryAfter(headers http.Header, now time.Time) (time.Duration, bool) {
	raw := strings.TrimSpace(headers.Get("Retry-After"))
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(raw); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
