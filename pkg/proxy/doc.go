// Package proxy holds the HTTP plumbing shared by the image proxy's
// handlers and middleware.
//
// # Error flow
//
// Handlers return plain Go errors. WriteError passes them through Classify,
// the single place where errors become a types.APIError with a Kind and an
// HTTP status, logs them with the request-scoped logger, and writes the
// error envelope:
//
//	{"success": false, "error": "[req-id] Prompt is required...", "timestamp": "..."}
//
// Internal causes are logged but the client only sees "Internal server error".
//
// # Sub-packages
//
//   - types: error kinds, APIError and the response envelopes
//   - middleware: recovery, logging, request ID, security headers, CORS, rate limiting
//   - handlers: the /api/gemini and /api/config endpoints
package proxy
