package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/atelier/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "1.0.0"); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "1.0.0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected tracing disabled")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop tracer produced a valid trace ID")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_InvalidSampler(t *testing.T) {
	_, err := New(&config.TracingConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Sampler:  "sometimes",
	}, "1.0.0")
	if err == nil {
		t.Fatal("expected error for unknown sampler")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{name: "always", strategy: SamplerAlways},
		{name: "never", strategy: SamplerNever},
		{name: "ratio", strategy: SamplerRatio, ratio: 0.5},
		{name: "empty defaults to ratio", strategy: "", ratio: 1.0},
		{name: "ratio too high", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "unknown", strategy: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && sampler == nil {
				t.Error("expected non-nil sampler")
			}
		})
	}
}

func TestSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "op")

	SetError(span, errors.New("upstream failed"))
	SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if got := spans[0].Status().Description; got != "upstream failed" {
		t.Errorf("status description = %q", got)
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("events = %d, want 1 recorded error", len(spans[0].Events()))
	}
}

func TestHTTPMiddleware_ExtractsTraceParent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var gotTraceID string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/gemini", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotTraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID in handler = %q", gotTraceID)
	}
	if rec.Header().Get("X-Trace-ID") != gotTraceID {
		t.Errorf("X-Trace-ID = %q", rec.Header().Get("X-Trace-ID"))
	}
}

func TestHTTPMiddleware_NoTraceParent(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Header().Get("X-Trace-ID") != "" {
		t.Error("X-Trace-ID set without incoming trace context")
	}
}

func TestInject(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Error("traceparent not injected")
	}
}
