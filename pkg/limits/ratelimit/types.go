package ratelimit

import (
	"context"
	"time"
)

// UnknownClient is the shared bucket for requests without a resolvable
// client address.
const UnknownClient = "unknown"

// Config configures a fixed window limiter.
type Config struct {
	// Window is the fixed window length.
	Window time.Duration

	// MaxRequests is the number of requests allowed per window.
	MaxRequests int
}

// DefaultConfig returns 30 requests per 60 seconds.
func DefaultConfig() Config {
	return Config{
		Window:      60 * time.Second,
		MaxRequests: 30,
	}
}

// Window is the state of one client's current window after an increment.
type Window struct {
	// Count is the number of requests seen in the window, this one included.
	Count int64

	// ResetAt is when the window ends.
	ResetAt time.Time
}

// Counter stores per-key request counts for fixed windows. Increment must
// be atomic per key: concurrent calls for the same key never undercount.
type Counter interface {
	// Increment records one request for key at now. A key without a live
	// window starts a new one ending at now+window.
	Increment(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error)

	// Len returns the number of live windows at now.
	Len(ctx context.Context, now time.Time) (int, error)

	// Close releases resources held by the counter.
	Close() error
}

// CheckResult is the outcome of one rate limit check.
type CheckResult struct {
	// Allowed is whether the request may proceed.
	Allowed bool

	// Limit is the configured maximum per window.
	Limit int

	// Remaining is the number of requests left in the window, never negative.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time

	// RetryAfter is the number of whole seconds until ResetAt, rounded up.
	// Zero when the request is allowed.
	RetryAfter int
}
