package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeNotFound       = "not_found"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeInternal       = "internal"
)

var (
	// ErrMissingCredential is returned when a handshake carries no credential.
	ErrMissingCredential = errors.New("missing credential")
	// ErrConnClosed is returned when pushing to a connection that is already closed.
	ErrConnClosed = errors.New("connection closed")
	// ErrSlowConsumer is returned when a connection's outbound queue is full.
	ErrSlowConsumer = errors.New("slow consumer")
	// ErrHubStopped is returned when a connection arrives after shutdown began.
	ErrHubStopped = errors.New("hub stopped")
)

// AuthError is the single terminal outcome of a rejected handshake.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Reason
	}
	return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
