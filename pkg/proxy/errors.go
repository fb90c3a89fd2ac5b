package proxy

import (
	"context"
	"errors"
	"net/http"

	"mercator-hq/atelier/pkg/gemini"
	"mercator-hq/atelier/pkg/providers"
	"mercator-hq/atelier/pkg/proxy/types"
)

// MsgInternal is the only message a client sees for unclassified failures.
const MsgInternal = "Internal server error"

// Classify converts any error into a client-facing *types.APIError.
//
//   - *types.APIError passes through unchanged
//   - *providers.TimeoutError becomes an ExternalService 502
//   - *providers.ProviderError becomes an ExternalService error carrying the
//     upstream status and message, or 502 when nothing was received
//   - anything else becomes Internal 500 with a generic message
//
// The original error is kept as Cause for server-side logging.
func Classify(err error) *types.APIError {
	if err == nil {
		return nil
	}

	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewExternalServiceError(gemini.ServiceName, "request timed out", http.StatusBadGateway, err)
	}

	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.Unreachable() {
			return types.NewExternalServiceError(gemini.ServiceName, "service unreachable", http.StatusBadGateway, err)
		}
		return types.NewExternalServiceError(gemini.ServiceName, providerErr.Message, providerErr.StatusCode, err)
	}

	if errors.Is(err, context.Canceled) {
		return types.NewExternalServiceError(gemini.ServiceName, "request cancelled", http.StatusBadGateway, err)
	}

	return types.NewInternalError(MsgInternal, err)
}
