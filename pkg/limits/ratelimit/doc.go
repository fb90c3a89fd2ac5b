// Package ratelimit implements the per-client fixed window rate limiter.
//
// Each client key gets a window of Config.Window starting at its first
// request. Every request increments the window's count; the request is
// allowed while the count is at most Config.MaxRequests. A throttled request
// reports RetryAfter as the remaining window rounded up to whole seconds.
//
// Counting is delegated to a Counter. MemoryCounter is process-local and is
// the default; RedisCounter shares windows between instances through an
// atomic INCR and PEXPIRE script.
package ratelimit
