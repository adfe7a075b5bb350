package pagination

import (
	"errors"
	"math/rand"
	"time"
)

// ErrRetryExhausted is returned when a transient failure outlives the
// provider's retry budget.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryPolicy controls retries of transient page failures.
type RetryPolicy struct {
	// MaxRetries is the retry budget for one fetch, shared by all pages.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier grows the delay after every retry.
	Multiplier float64

	// Jitter randomizes each delay by ±Jitter (0.2 = ±20%).
	Jitter float64
}

// DefaultRetryPolicy returns the default policy with the given budget.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.InitialDelay <= 0 || attempt < 1 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	backoff := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		backoff *= multiplier
		if p.MaxDelay > 0 && backoff >= float64(p.MaxDelay) {
			backoff = float64(p.MaxDelay)
			break
		}
	}
	if p.MaxDelay > 0 && backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		backoff *= 1 - p.Jitter + rand.Float64()*2*p.Jitter
	}
	return time.Duration(backoff)
}

// isTemporary reports whether err asks to be retried on the same cursor.
func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}
