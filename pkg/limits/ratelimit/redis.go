package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript increments the key and starts its window on the first hit.
// A key that somehow lost its TTL gets a fresh one so it cannot live forever.
var incrementScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// RedisCounter keeps windows in Redis so that several proxy instances share
// one budget per client. Each window is a single integer key with a TTL.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// RedisCounterConfig holds configuration for the Redis counter.
type RedisCounterConfig struct {
	// Client is the Redis client to use.
	Client *redis.Client

	// Prefix namespaces counter keys.
	Prefix string
}

// NewRedisCounter creates a Redis-backed counter.
func NewRedisCounter(cfg RedisCounterConfig) (*RedisCounter, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisCounter{
		client: cfg.Client,
		prefix: cfg.Prefix,
	}, nil
}

// Increment implements Counter.
func (r *RedisCounter) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	res, err := incrementScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("redis rate limit increment failed: %w", err)
	}
	if len(res) != 2 {
		return Window{}, errors.New("unexpected redis script result")
	}

	return Window{
		Count:   res[0],
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Len implements Counter by scanning the key prefix.
func (r *RedisCounter) Len(ctx context.Context, _ time.Time) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return n, nil
}

// Ping checks connectivity to Redis.
func (r *RedisCounter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements Counter.
func (r *RedisCounter) Close() error {
	return r.client.Close()
}
