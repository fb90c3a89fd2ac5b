package types

import (
	"fmt"
	"net/http"
	"time"
)

// Kind is the closed set of failure categories surfaced to clients.
type Kind string

const (
	// KindValidation is malformed or missing client input.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindAuthentication is reserved for client authentication failures.
	KindAuthentication Kind = "AUTHENTICATION_ERROR"

	// KindRateLimit is a throttled client.
	KindRateLimit Kind = "RATE_LIMIT_ERROR"

	// KindExternalService is an upstream failure or unusable upstream output.
	KindExternalService Kind = "EXTERNAL_SERVICE_ERROR"

	// KindInternal is every other failure.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Status returns the default HTTP status for the kind.
// ExternalService errors usually carry the upstream status instead.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// APIError is a classified failure. It is built once by one of the
// constructors below and never mutated afterwards.
type APIError struct {
	// Kind is the failure category.
	Kind Kind

	// Message is the client-visible message.
	Message string

	// Status is the HTTP status code returned to the client.
	Status int

	// RetryAfter is the number of seconds until a throttled client may
	// retry. Only set for KindRateLimit.
	RetryAfter int

	// Timestamp is when the error was classified.
	Timestamp time.Time

	// Cause is the underlying error, kept for logging only.
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode returns the status to respond with.
func (e *APIError) HTTPStatusCode() int {
	if e.Status == 0 {
		return e.Kind.Status()
	}
	return e.Status
}

func newAPIError(kind Kind, message string, status int, cause error) *APIError {
	if status == 0 {
		status = kind.Status()
	}
	return &APIError{
		Kind:      kind,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewValidationError creates a 400 error for invalid client input.
func NewValidationError(message string) *APIError {
	return newAPIError(KindValidation, message, 0, nil)
}

// NewAuthenticationError creates a 401 error.
func NewAuthenticationError(message string) *APIError {
	if message == "" {
		message = "Authentication failed"
	}
	return newAPIError(KindAuthentication, message, 0, nil)
}

// NewRateLimitError creates a 429 error carrying the retry delay in seconds.
func NewRateLimitError(message string, retryAfter int) *APIError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	err := newAPIError(KindRateLimit, message, 0, nil)
	err.RetryAfter = retryAfter
	return err
}

// NewExternalServiceError creates an upstream failure. The message is
// prefixed with the service name; a zero status becomes 502.
func NewExternalServiceError(service, message string, status int, cause error) *APIError {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return newAPIError(KindExternalService, fmt.Sprintf("%s error: %s", service, message), status, cause)
}

// NewInternalError creates a 500 error.
func NewInternalError(message string, cause error) *APIError {
	return newAPIError(KindInternal, message, 0, cause)
}

// NewMethodNotAllowedError creates a 405 validation error for an
// unsupported HTTP method.
func NewMethodNotAllowedError() *APIError {
	return newAPIError(KindValidation, "Method not allowed.", http.StatusMethodNotAllowed, nil)
}

// NewNotFoundError creates a 404 validation error for an unknown route.
func NewNotFoundError() *APIError {
	return newAPIError(KindValidation, "Not found.", http.StatusNotFound, nil)
}
