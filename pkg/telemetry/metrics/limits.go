package metrics

import (
	"mercator-hq/atelier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LimitMetrics tracks the rate limiter.
//
// Metrics:
//   - atelier_ratelimit_rejections_total: requests refused with 429
//   - atelier_ratelimit_live_buckets: open windows at the last sample
type LimitMetrics struct {
	rejections  prometheus.Counter
	liveBuckets prometheus.Gauge
}

// NewLimitMetrics creates and registers rate limiter metrics.
func NewLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimitMetrics {
	lm := &LimitMetrics{
		rejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_rejections_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
		liveBuckets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_live_buckets",
				Help:      "Number of open rate limit windows",
			},
		),
	}

	registry.MustRegister(lm.rejections, lm.liveBuckets)

	return lm
}
