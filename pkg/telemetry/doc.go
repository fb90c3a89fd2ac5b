// Package telemetry groups the proxy's observability packages.
//
//   - logging: slog construction, request-scoped loggers, credential redaction
//   - metrics: Prometheus collectors for HTTP traffic, upstream calls and the limiter
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: named probes aggregated behind /api/health
//
// Components receive a logger through the request context or their
// constructor. Metrics and tracing are optional: a nil collector and a noop
// tracer are both valid.
package telemetry
