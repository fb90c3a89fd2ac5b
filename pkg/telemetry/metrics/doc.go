// Package metrics provides Prometheus metrics for the image proxy.
//
// # Metrics
//
//   - http_requests_total{route,status} and http_request_duration_seconds{route}
//   - upstream_requests_total{action,status} and upstream_duration_seconds{action}
//   - ratelimit_rejections_total and ratelimit_live_buckets
//   - panics_total
//
// All names carry the configured namespace, "atelier" by default.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
//
// The collector satisfies the upstream client's Observer interface and the
// rate limit reporter's Sink interface, so it is passed to both directly.
package metrics
