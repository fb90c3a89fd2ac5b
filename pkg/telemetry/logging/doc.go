// Package logging builds the process logger and carries request-scoped
// loggers through context.Context.
//
// The request ID middleware derives a child logger carrying request_id,
// method, path and client_ip, and stores it with WithLogger. Handlers and
// clients retrieve it with FromContext; nothing holds a mutable global.
//
// When redaction is enabled, Google API keys, key= query parameters and
// bearer tokens are masked before a record reaches the writer.
package logging
