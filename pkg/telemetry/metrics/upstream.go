package metrics

import (
	"time"

	"mercator-hq/atelier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to the image API.
//
// Metrics:
//   - atelier_upstream_requests_total: calls by action and upstream status
//   - atelier_upstream_duration_seconds: call latency by action
type UpstreamMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream API calls",
			},
			[]string{"action", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Duration of upstream API calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(um.requestsTotal, um.duration)

	return um
}

// Observe records one upstream call.
func (um *UpstreamMetrics) Observe(action, status string, duration time.Duration) {
	um.requestsTotal.WithLabelValues(action, status).Inc()
	um.duration.WithLabelValues(action).Observe(duration.Seconds())
}
