package client

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned when a response exceeds Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// RequestError is a provider request that failed before a usable response
// was read: network failures, timeouts, or a cooldown outlasting the wait
// budget.
type RequestError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the request was refused because the provider
// is cooling down.
func (e *RequestError) IsRateLimited() bool {
	return e.ErrorClass == ErrorClassRateLimit
}
