package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned without contacting the backend while its
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRateLimited is returned when the outbound rate limit does not admit
	// the request before its deadline.
	ErrRateLimited = errors.New("outbound rate limit exceeded")
)

// SourceError represents a failed call to an evidence backend.
// It includes the source name, HTTP status code, and underlying error.
type SourceError struct {
	// Source is the configured name of the backend (e.g. "provenance", "hive")
	Source string

	// StatusCode is the HTTP status code (0 if no response was received)
	StatusCode int

	// Message is the response body text or a short description
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("source %q request failed: %d %s", e.Source, e.StatusCode, e.Message)
	case e.Cause != nil && e.Message != "":
		return fmt.Sprintf("source %q %s: %v", e.Source, e.Message, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("source %q: %v", e.Source, e.Cause)
	default:
		return fmt.Sprintf("source %q: %s", e.Source, e.Message)
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

// retryable reports whether the failure is transient: no response at all,
// or a 5xx status.
func (e *SourceError) retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// ConfigError represents a source configuration error.
type ConfigError struct {
	// Source is the name of the backend with invalid configuration
	Source string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("source %q configuration error for field %q: %s",
		e.Source, e.Field, e.Message)
}
