package handlers

import (
	"context"

	"mercator-hq/atelier/pkg/security/secrets"
	"mercator-hq/atelier/pkg/telemetry/health"
)

// GeminiServiceName is the key of the upstream in the health report.
const GeminiServiceName = "geminiApi"

// GeminiHealthCheck returns a probe that lists upstream models with the
// current credential. A missing credential fails without a network call.
func GeminiHealthCheck(client ImageClient, apiKey KeyFunc) health.CheckFunc {
	return func(ctx context.Context) error {
		key := apiKey()
		if key == "" {
			return secrets.ErrAPIKeyMissing
		}
		_, err := client.Ping(ctx, key)
		return err
	}
}
