package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/atelier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the proxy's Prometheus registry and every metric recorded
// on it. A disabled collector accepts all calls and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	limitMetrics    *LimitMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registered on registry. If registry is
// nil a fresh one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		// Image generation routinely takes several seconds.
		cfg.DurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(64),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.limitMetrics = NewLimitMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && (c.config.Enabled == nil || *c.config.Enabled)
}

// ObserveHTTP records a completed HTTP request. Routes beyond the
// cardinality budget are folded into "other".
func (c *Collector) ObserveHTTP(route string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}

	if !c.cardinalityLimiter.Allow(route) {
		route = "other"
	}

	c.requestMetrics.Observe(route, strconv.Itoa(status), duration)
}

// ObserveUpstream records one upstream call. Status 0 means the upstream
// could not be reached.
func (c *Collector) ObserveUpstream(action string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.upstreamMetrics.Observe(action, strconv.Itoa(status), duration)
}

// RateLimitRejected counts a request refused by the rate limiter.
func (c *Collector) RateLimitRejected() {
	if !c.enabled() {
		return
	}
	c.limitMetrics.rejections.Inc()
}

// SetLiveBuckets publishes the number of open rate limit windows.
func (c *Collector) SetLiveBuckets(n int) {
	if !c.enabled() {
		return
	}
	c.limitMetrics.liveBuckets.Set(float64(n))
}

// PanicRecovered counts a handler panic caught by the recovery middleware.
func (c *Collector) PanicRecovered() {
	if !c.enabled() {
		return
	}
	c.requestMetrics.panics.Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values accepted.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter accepting up to maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or there is room for it.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
