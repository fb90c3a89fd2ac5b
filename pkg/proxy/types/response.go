package types

import "time"

// SuccessResponse is the envelope for every successful API response.
type SuccessResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the envelope for every failed API response.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// NewSuccessResponse wraps data in the success envelope.
func NewSuccessResponse(data any, message string) *SuccessResponse {
	return &SuccessResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// NewErrorResponse builds the error envelope for err. A non-empty requestID
// is prefixed to the message so clients can quote it.
func NewErrorResponse(err *APIError, requestID string) *ErrorResponse {
	msg := err.Message
	if requestID != "" {
		msg = "[" + requestID + "] " + msg
	}
	return &ErrorResponse{
		Success:   false,
		Error:     msg,
		Timestamp: FormatTimestamp(err.Timestamp),
	}
}

// FormatTimestamp renders t as RFC 3339 UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
