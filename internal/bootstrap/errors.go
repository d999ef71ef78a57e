package bootstrap

import (
	"errors"
	"fmt"
	"time"
)

// Every error in this package is terminal for the current attempt: no
// silent retries, and the caller always resolves the user to a concrete
// visible state. Recovery detection is never an error path.

// CallbackError means the redirect itself carried a provider error
// (expired link, denied consent). The exchange is never attempted.
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("callback error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("callback error %s", e.Code)
}

// ExchangeError means the code-for-session or token-set call failed.
// User treatment matches CallbackError; the distinct type is for
// diagnostics.
type ExchangeError struct {
	Op  string
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("session exchange (%s): %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// CapabilityError means a routing capability query failed after the
// session was established. Terminal: never a silent default route.
type CapabilityError struct {
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("routing capability: %v", e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// ErrNoSession means listening completed (the sign-out grace window
// elapsed) with no session and no recovery signal. Recoverable: the user
// is offered a retry.
var ErrNoSession = errors.New("no session established")

// ErrAlreadyResolved means a second terminal action was attempted on an
// attempt that has already produced its routing decision or error.
var ErrAlreadyResolved = errors.New("attempt already resolved")

// TimeoutError means the supervisor bound fired before any auth event
// resolved the attempt. Recoverable: retry reloads the callback attempt.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("authentication timed out after %s", e.After)
}

// Retryable reports whether the error allows the user to retry the same
// callback attempt rather than starting over from sign-in.
func Retryable(err error) bool {
	var te *TimeoutError
	return errors.Is(err, ErrNoSession) || errors.As(err, &te)
}

// ErrorCode maps an attempt error to the stable code recorded in the
// audit trail and surfaced in redirect URLs.
func ErrorCode(err error) string {
	var (
		cbErr  *CallbackError
		exErr  *ExchangeError
		capErr *CapabilityError
		toErr  *TimeoutError
	)
	switch {
	case errors.As(err, &cbErr):
		return "callback_error"
	case errors.As(err, &exErr):
		return "exchange_error"
	case errors.As(err, &capErr):
		return "capability_error"
	case errors.As(err, &toErr):
		return "timeout"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	default:
		return "internal_error"
	}
}
