package ratelimit

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RateLimitInfo captures limiter response metadata.
type RateLimitInfo struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter defines common interface.
type Limiter interface {
	Allow(ctx context.Context, key string) (RateLimitInfo, error)
}

// MemoryLimiter implements a token bucket per key, refilled at limit tokens per minute.
type MemoryLimiter struct {
	limit int
	burst int
	store map[string]*bucket
	mu    sync.Mutex
	now   func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewMemoryLimiter builds RAM limiter.
func NewMemoryLimiter(limit, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		limit: limit,
		burst: burst,
		store: make(map[string]*bucket),
		now:   time.Now,
	}
}

// Allow implements limiter.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (RateLimitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	reset := now.Add(time.Minute)
	b, ok := m.store[key]
	if !ok {
		b = &bucket{tokens: float64(m.limit + m.burst - 1), last: now}
		m.store[key] = b
		return RateLimitInfo{Allowed: true, Limit: m.limit, Remaining: m.limit - 1, Reset: reset}, nil
	}
	delta := now.Sub(b.last).Minutes()
	b.tokens = min(float64(m.limit+m.burst), b.tokens+delta*float64(m.limit))
	b.last = now
	if b.tokens >= 1 {
		b.tokens -= 1
		return RateLimitInfo{Allowed: true, Limit: m.limit, Remaining: int(b.tokens), Reset: reset}, nil
	}
	return RateLimitInfo{Allowed: false, Limit: m.limit, Remaining: 0, Reset: reset}, nil
}

// Sweep drops buckets idle for longer than maxIdle and returns how many were removed.
// Keys include user ids, so long-running processes should sweep periodically.
func (m *MemoryLimiter) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxIdle)
	removed := 0
	for key, b := range m.store {
		if b.last.Before(cutoff) {
			delete(m.store, key)
			removed++
		}
	}
	return removed
}

// RedisLimiter coordinates distributed throttling with a fixed one-minute window.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	prefix string
}

// NewRedisLimiter builds redis limiter.
func NewRedisLimiter(client *redis.Client, limit int, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, prefix: prefix}
}

// Allow implements limiter.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (RateLimitInfo, error) {
	redisKey := r.prefix + ":" + key
	reset := time.Now().Add(time.Minute)
	pipe := r.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitInfo{}, err
	}
	used := int(count.Val())
	if used <= r.limit {
		return RateLimitInfo{Allowed: true, Limit: r.limit, Remaining: r.limit - used, Reset: reset}, nil
	}
	return RateLimitInfo{Allowed: false, Limit: r.limit, Remaining: 0, Reset: reset}, nil
}
