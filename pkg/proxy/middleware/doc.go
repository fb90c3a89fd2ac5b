// Package middleware provides the HTTP middleware chain of the image proxy.
//
// The server wraps its mux, outermost first:
//
//	RequestIDMiddleware        request ID, client IP, request-scoped logger
//	RecoveryMiddleware         panic to 500 envelope
//	LoggingMiddleware          one log line and one metric per request
//	tracing.HTTPMiddleware     incoming traceparent
//	SecurityHeadersMiddleware  nosniff, frame denial and friends
//	CORSMiddleware             CORS headers; answers OPTIONS with 200
//
// RateLimitMiddleware wraps only the /api/gemini route.
package middleware
