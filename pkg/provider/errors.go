package provider

import (
	"fmt"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrorKindInvalidInput      ErrorKind = "invalid_input"
	ErrorKindPrivateProfile    ErrorKind = "private_profile"
	ErrorKindInvalidCredential ErrorKind = "invalid_credential"
	ErrorKindTransient         ErrorKind = "transient"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindTransport         ErrorKind = "transport"
	ErrorKindProvider          ErrorKind = "provider"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrInvalidInput      = &Error{Kind: ErrorKindInvalidInput}
	ErrPrivateProfile    = &Error{Kind: ErrorKindPrivateProfile}
	ErrInvalidCredential = &Error{Kind: ErrorKindInvalidCredential}
	ErrTransient         = &Error{Kind: ErrorKindTransient}
	ErrMalformedResponse = &Error{Kind: ErrorKindMalformedResponse}
	ErrTransport         = &Error{Kind: ErrorKindTransport}
	ErrProvider          = &Error{Kind: ErrorKindProvider}
)

// Error is a classified failure of one provider call.
type Error struct {
	Kind       ErrorKind
	Provider   Kind
	StatusCode int
	Message    string

	// EResult is the Steam result code embedded in some error messages
	// (e.g. "Failure (2)"). Zero when absent.
	EResult int

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = string(e.Provider) + " " + prefix
	}
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s (status %d)", prefix, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Temporary reports whether the same request may succeed when retried.
func (e *Error) Temporary() bool {
	return e.Kind == ErrorKindTransient
}

func newError(p Kind, kind ErrorKind, status int, msg string) *Error {
	return &Error{Kind: kind, Provider: p, StatusCode: status, Message: msg}
}

func invalidInput(p Kind, format string, args ...any) *Error {
	return newError(p, ErrorKindInvalidInput, 0, fmt.Sprintf(format, args...))
}
