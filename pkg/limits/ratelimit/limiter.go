package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter applies a fixed window limit per client key on top of a Counter.
type Limiter struct {
	counter Counter
	now     func() time.Time

	mu     sync.RWMutex
	config Config
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a limiter. Zero config fields take DefaultConfig values.
func NewLimiter(counter Counter, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		counter: counter,
		now:     time.Now,
		config:  normalize(cfg),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for key and reports whether it is allowed.
// An empty key is counted against UnknownClient.
func (l *Limiter) Check(ctx context.Context, key string) (*CheckResult, error) {
	if key == "" {
		key = UnknownClient
	}

	cfg := l.Config()
	now := l.now()

	w, err := l.counter.Increment(ctx, key, now, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %q: %w", key, err)
	}

	limit := int64(cfg.MaxRequests)
	result := &CheckResult{
		Allowed:   w.Count <= limit,
		Limit:     cfg.MaxRequests,
		Remaining: int(max(0, limit-w.Count)),
		ResetAt:   w.ResetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfterSeconds(w.ResetAt.Sub(now))
	}
	return result, nil
}

// Config returns the current limits.
func (l *Limiter) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Update replaces the limits. Windows already open keep their reset time.
func (l *Limiter) Update(cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config = normalize(cfg)
}

// Live returns the number of open windows.
func (l *Limiter) Live(ctx context.Context) (int, error) {
	return l.counter.Len(ctx, l.now())
}

// Close closes the underlying counter.
func (l *Limiter) Close() error {
	return l.counter.Close()
}

// retryAfterSeconds rounds d up to whole seconds, with a floor of one so a
// throttled client is never told to retry immediately.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	return cfg
}
