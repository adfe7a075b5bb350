// Package ratelimit tracks per-host cooldowns signalled by inventory providers
// (HTTP 429 / Retry-After) and gates outgoing requests until they expire.
// State lives in Redis so every process sharing an egress IP honours it.
package ratelimit

import (
	"time"
)

// Redis key layout for cooldown state.
const (
	RedisKeyPrefix = "inventory:rate_limit:"

	redisSuffixBlockedUntil = ":blocked_until"
	redisSuffixHits         = ":hits"
	redisSuffixLastUpdate   = ":last_update"
)

// Cooldown bounds.
const (
	// DefaultCooldown applies when a provider rate limits without Retry-After.
	DefaultCooldown = 30 * time.Second

	// MaxCooldown caps provider-supplied Retry-After values.
	MaxCooldown = 5 * time.Minute

	// hitsWindow is how long the 429 counter for a host is kept.
	hitsWindow = 10 * time.Minute
)

// CooldownState is the rate limit state of one provider host.
type CooldownState struct {
	// Host is the provider host name (e.g. "steamcommunity.com").
	Host string `json:"host"`

	// BlockedUntil is when the host accepts requests again. Zero when the
	// host is not cooling down.
	BlockedUntil time.Time `json:"blocked_until"`

	// Hits is the number of rate limit responses seen in the last window.
	Hits int `json:"hits"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *CooldownState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsBlocked reports whether requests to the host must wait.
func (s *CooldownState) IsBlocked() bool {
	return s.TimeUntilReset() > 0
}

// TimeUntilReset returns the remaining cooldown.
// Returns 0 if the cooldown has already passed.
func (s *CooldownState) TimeUntilReset() time.Duration {
	if s.BlockedUntil.IsZero() {
		return 0
	}
	duration := time.Until(s.BlockedUntil)
	if duration < 0 {
		return 0
	}
	return duration
}

func blockedUntilKey(host string) string { return RedisKeyPrefix + host + redisSuffixBlockedUntil }
func hitsKey(host string) string         { return RedisKeyPrefix + host + redisSuffixHits }
func lastUpdateKey(host string) string   { return RedisKeyPrefix + host + redisSuffixLastUpdate }
