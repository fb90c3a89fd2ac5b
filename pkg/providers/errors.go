package providers

import (
	"fmt"
	"time"
)

// ProviderError is returned when the upstream answers with a non-2xx status
// or cannot be reached at all. StatusCode is zero when no response arrived.
type ProviderError struct {
	// Provider is the upstream name.
	Provider string

	// StatusCode is the upstream HTTP status, or 0 for transport failures.
	StatusCode int

	// Message is the upstream's own error message when it sent one.
	Message string

	// Cause is the underlying transport or decoding error.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("provider %q error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Unreachable reports whether no HTTP response was received.
func (e *ProviderError) Unreachable() bool {
	return e.StatusCode == 0
}

// TimeoutError is returned when the upstream call exceeds its deadline.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}
