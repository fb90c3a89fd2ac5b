// Package tracing configures OpenTelemetry for the proxy.
//
// With tracing disabled, New returns a noop tracer and nothing is exported.
// Enabled, spans are batched to an OTLP gRPC collector. The upstream client
// opens one client span per call, named gemini.edit or gemini.generate.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
package tracing
