package metrics

import (
	"time"

	"mercator-hq/atelier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks inbound HTTP traffic.
//
// Metrics:
//   - atelier_http_requests_total: requests by route and status code
//   - atelier_http_request_duration_seconds: latency by route
//   - atelier_panics_total: handler panics recovered
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	panics          prometheus.Counter
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"route"},
		),

		panics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "panics_total",
				Help:      "Total number of handler panics recovered",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.panics,
	)

	return rm
}

// Observe records one request.
func (rm *RequestMetrics) Observe(route, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, status).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
