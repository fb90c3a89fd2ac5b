package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/atelier/pkg/telemetry/logging"
)

// HTTPObserver records completed requests.
type HTTPObserver interface {
	ObserveHTTP(route string, status int, duration time.Duration)
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs one line per completed request and records it with
// observer, which may be nil. 5xx responses log at Error, 4xx at Warn.
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "request_id": "6f1c...",
//	  "method": "POST",
//	  "path": "/api/gemini",
//	  "client_ip": "203.0.113.7",
//	  "status": 200,
//	  "latency_ms": 5120,
//	  "bytes": 482113
//	}
func LoggingMiddleware(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			startTime := GetStartTime(ctx)
			if startTime.IsZero() {
				startTime = time.Now()
			}

			logger := logging.FromContext(ctx)
			logger.DebugContext(ctx, "request started", "user_agent", r.UserAgent())

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			latency := time.Since(startTime)

			logLevel := slog.LevelInfo
			if rw.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rw.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			logger.Log(ctx, logLevel, "request completed",
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"bytes", rw.bytes,
			)

			if observer != nil {
				observer.ObserveHTTP(r.URL.Path, rw.statusCode, latency)
			}
		})
	}
}
