package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/telemetry/logging"

	"github.com/google/uuid"
)

// maxRequestIDLength bounds caller-supplied request IDs.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns each request an ID and a request-scoped
// logger. A caller-supplied X-Request-ID is reused when it is reasonably
// short; otherwise a UUID is generated.
//
// The request ID is:
//   - stored in the context (logging.GetRequestID)
//   - echoed in the X-Request-ID response header
//   - attached, with method, path and client_ip, to the logger returned by
//     logging.FromContext for the rest of the request
//
// Example usage:
//
//	handler = RequestIDMiddleware(logger, true)(handler)
func RequestIDMiddleware(base *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(proxy.RequestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.NewString()
			}

			clientIP := proxy.ClientIP(r, trustProxy)

			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ClientIPKey, clientIP)
			ctx = context.WithValue(ctx, StartTimeKey, time.Now())
			ctx = logging.WithLogger(ctx, base.With(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", clientIP,
			))

			w.Header().Set(proxy.RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
