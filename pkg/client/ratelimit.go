// Package client implements a Go client for the e-portfolio data API.
package client

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - Token bucket
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig contains configuration for the client-side rate
// limiter. The limiter keeps a bursty generation pipeline from saturating
// the data API's own per-IP limit.
type RateLimiterConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the number of requests allowed in a burst.
	BurstSize int

	// MinInterval is the minimum time between requests, tokens or not.
	MinInterval time.Duration

	// WaitTimeout is the maximum time Allow blocks waiting for a token.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig returns defaults sized for one pipeline worker.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10.0,
		BurstSize:         20,
		MinInterval:       10 * time.Millisecond,
		WaitTimeout:       15 * time.Second,
	}
}

// RateLimitError is returned when a request cannot proceed within the wait
// timeout, or when the API answered 429.
type RateLimitError struct {
	// RetryAfter is the suggested wait before retrying.
	RetryAfter time.Duration

	// Message provides additional context.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string { return e.Message }

// Is matches any RateLimitError regardless of payload.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// RateLimiter is a token bucket with a minimum inter-request interval.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	refillRate  float64
	tokens      float64
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	waitTimeout time.Duration
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize),
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastRequest: now.Add(-config.MinInterval),
		waitTimeout: config.WaitTimeout,
	}
}

// Allow blocks until a token is available, the wait timeout elapses, or
// the context is done.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		wait, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		if time.Now().Add(wait).After(deadline) {
			return &RateLimitError{
				RetryAfter: wait,
				Message:    "rate limit exceeded, retry after " + wait.String(),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryAcquire consumes a token if one is available. On failure it returns
// how long to wait before trying again.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if since := time.Since(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since, false
	}

	if rl.tokens < 1.0 {
		needed := 1.0 - rl.tokens
		return time.Duration(needed / rl.refillRate * float64(time.Second)), false
	}

	rl.tokens--
	rl.lastRequest = time.Now()
	return 0, true
}

// refill adds tokens for the elapsed time. Caller holds the lock.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// RecordRateLimitHit empties the bucket after the API answered 429 so the
// next attempts back off instead of hammering.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = 0
	rl.lastRefill = time.Now()
	if retryAfter > 0 {
		// Push the min-interval gate out to the server's suggestion.
		rl.lastRequest = time.Now().Add(retryAfter - rl.minInterval)
	} else {
		rl.lastRequest = time.Now()
	}
}

// Reset restores a full bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = rl.maxTokens
	rl.lastRefill = time.Now()
	rl.lastRequest = time.Now().Add(-rl.minInterval)
}

// RateLimiterStatus is a point-in-time view of the limiter.
type RateLimiterStatus struct {
	AvailableTokens float64
	MaxTokens       float64
	RefillRate      float64
	LastRequest     time.Time
}

// Status returns the current limiter state.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()

	return RateLimiterStatus{
		AvailableTokens: rl.tokens,
		MaxTokens:       rl.maxTokens,
		RefillRate:      rl.refillRate,
		LastRequest:     rl.lastRequest,
	}
}
