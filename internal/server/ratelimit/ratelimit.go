// Package ratelimit throttles login attempts per client using token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// tokenBucket allows a burst of requests and refills at a steady rate.
type tokenBucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (tb *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Limiter tracks one token bucket per client identifier.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	config  *Config

	cleanupStop chan struct{}
	stopOnce    sync.Once
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup loop.
func NewLimiter(config *Config) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*tokenBucket),
		config:      config,
		cleanupStop: make(chan struct{}),
	}
	if config.Enabled {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether the client may make another attempt now.
func (l *Limiter) Allow(clientID string) bool {
	if !l.config.Enabled {
		return true
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[clientID]
	if !ok {
		bucket = &tokenBucket{
			capacity:   float64(l.config.Burst),
			refillRate: float64(l.config.Limit) / l.config.Window.Seconds(),
			tokens:     float64(l.config.Burst),
			lastRefill: now,
		}
		l.buckets[clientID] = bucket
	}
	return bucket.allow(now)
}

// RetryAfter returns how long until the client has a token again.
func (l *Limiter) RetryAfter(clientID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[clientID]
	if !ok || bucket.tokens >= 1.0 {
		return 0
	}
	needed := 1.0 - bucket.tokens
	return time.Duration(needed / bucket.refillRate * float64(time.Second))
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.cleanupStop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanup drops buckets that have fully refilled; they are indistinguishable
// from fresh ones.
func (l *Limiter) cleanup() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, bucket := range l.buckets {
		idle := now.Sub(bucket.lastRefill).Seconds()
		if bucket.tokens+idle*bucket.refillRate >= bucket.capacity {
			delete(l.buckets, id)
		}
	}
}
