package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// WriteJSONResponse writes data as JSON with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any, message string) {
	WriteSuccessStatus(w, r, http.StatusOK, data, message)
}

// WriteSuccessStatus writes a success envelope with the given status code.
func WriteSuccessStatus(w http.ResponseWriter, r *http.Request, statusCode int, data any, message string) {
	if err := WriteJSONResponse(w, statusCode, types.NewSuccessResponse(data, message)); err != nil {
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// WriteError classifies err, logs it and writes the error envelope. Rate
// limit errors also get a Retry-After header. Internal causes are logged
// but never sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	apiErr := Classify(err)
	logger := logging.FromContext(ctx)

	attrs := []any{
		"kind", apiErr.Kind,
		"status", apiErr.HTTPStatusCode(),
		"message", apiErr.Message,
	}
	if apiErr.Cause != nil {
		attrs = append(attrs, "error", apiErr.Cause)
	}

	level := slog.LevelError
	switch apiErr.Kind {
	case types.KindValidation, types.KindRateLimit:
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "request failed", attrs...)

	if apiErr.Kind == types.KindRateLimit && apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(apiErr.RetryAfter))
	}

	resp := types.NewErrorResponse(apiErr, logging.GetRequestID(ctx))
	if err := WriteJSONResponse(w, apiErr.HTTPStatusCode(), resp); err != nil {
		logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}
