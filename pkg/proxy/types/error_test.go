package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindRateLimit, http.StatusTooManyRequests},
		{KindExternalService, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name        string
		err         *APIError
		wantKind    Kind
		wantStatus  int
		wantMessage string
	}{
		{"validation", NewValidationError("Prompt is required."), KindValidation, 400, "Prompt is required."},
		{"authentication default", NewAuthenticationError(""), KindAuthentication, 401, "Authentication failed"},
		{"rate limit default", NewRateLimitError("", 12), KindRateLimit, 429, "Rate limit exceeded"},
		{"external with upstream status", NewExternalServiceError("Gemini API", "quota exceeded", 429, nil), KindExternalService, 429, "Gemini API error: quota exceeded"},
		{"external without status", NewExternalServiceError("Gemini API", "service unreachable", 0, cause), KindExternalService, 502, "Gemini API error: service unreachable"},
		{"internal", NewInternalError("Internal server error", cause), KindInternal, 500, "Internal server error"},
		{"method not allowed", NewMethodNotAllowedError(), KindValidation, 405, "Method not allowed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatusCode())
			assert.Equal(t, tt.wantMessage, tt.err.Message)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError("Internal server error", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
	assert.Contains(t, err.Error(), "boom")

	var apiErr *APIError
	require.ErrorAs(t, error(NewValidationError("bad")), &apiErr)
	assert.Nil(t, apiErr.Unwrap())
	assert.Equal(t, "VALIDATION_ERROR: bad", apiErr.Error())
}

func TestRateLimitRetryAfter(t *testing.T) {
	err := NewRateLimitError("Too many requests.", 17)
	assert.Equal(t, 17, err.RetryAfter)
	assert.Zero(t, NewValidationError("x").RetryAfter)
}

func TestErrorResponse(t *testing.T) {
	err := NewValidationError("Unsupported action.")
	err.Timestamp = time.Date(2025, 11, 20, 10, 30, 0, 5_000_000, time.UTC)

	data, jsonErr := json.Marshal(NewErrorResponse(err, "req-1"))
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `{"success":false,"error":"[req-1] Unsupported action.","timestamp":"2025-11-20T10:30:00.005Z"}`, string(data))

	plain := NewErrorResponse(err, "")
	assert.Equal(t, "Unsupported action.", plain.Error)
}

func TestSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"imageBase64": "b64"}, "Image generated successfully")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "Image generated successfully", decoded["message"])
	assert.NotEmpty(t, decoded["timestamp"])

	_, parseErr := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, parseErr)
}
