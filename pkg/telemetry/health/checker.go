package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CheckFunc probes one dependency. It returns nil when the dependency is
// available.
type CheckFunc func(ctx context.Context) error

// Service statuses.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Overall statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ServiceStatus is the result of one dependency probe.
type ServiceStatus struct {
	// Status is "available" or "unavailable".
	Status string `json:"status"`

	// ResponseTime is how long the probe took, in milliseconds.
	ResponseTime int64 `json:"responseTime"`

	// Error describes why the dependency is unavailable.
	Error string `json:"error,omitempty"`
}

// Report is the aggregated health of the process and its dependencies.
type Report struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    int64                    `json:"uptime"`
	Services  map[string]ServiceStatus `json:"services"`
}

// Healthy reports whether every dependency is available.
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// ErrCheckTimeout is reported when a probe exceeds the check timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// Checker runs named dependency probes concurrently, each bounded by a
// timeout.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
	version      string
	started      time.Time
	now          func() time.Time
}

// New creates a checker. A zero timeout defaults to 5 seconds.
func New(checkTimeout time.Duration, version string) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		version:      version,
		started:      time.Now(),
		now:          time.Now,
	}
}

// RegisterCheck registers or replaces the probe for name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// UnregisterCheck removes the probe for name.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.checks, name)
}

// Check runs every registered probe and aggregates the results. The process
// is healthy when all probes succeed; with no probes it is healthy.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]ServiceStatus, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	status := StatusHealthy
	for _, result := range results {
		if result.Status != StatusAvailable {
			status = StatusUnhealthy
		}
	}

	now := c.now()
	return Report{
		Status:    status,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:   c.version,
		Uptime:    int64(now.Sub(c.started).Seconds()),
		Services:  results,
	}
}

// runCheck executes a single probe with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) ServiceStatus {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			return ServiceStatus{
				Status:       StatusUnavailable,
				ResponseTime: elapsed,
				Error:        err.Error(),
			}
		}
		return ServiceStatus{
			Status:       StatusAvailable,
			ResponseTime: elapsed,
		}

	case <-checkCtx.Done():
		return ServiceStatus{
			Status:       StatusUnavailable,
			ResponseTime: time.Since(start).Milliseconds(),
			Error:        ErrCheckTimeout.Error(),
		}
	}
}

// ListChecks returns the names of all registered probes.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}

	return names
}

// CheckCount returns the number of registered probes.
func (c *Checker) CheckCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.checks)
}
