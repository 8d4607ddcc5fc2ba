// Package ratelimit paces outgoing REST calls so the connector stays inside the
// per-IP and per-key request budgets BingX enforces. It wraps Uber's token
// bucket limiter behind a small interface so rate limiting stays swappable and
// easy to stub in tests.
//
// The REST client acquires a token before every HTTP call; WebSocket code may
// reuse the same limiter to pace subscribe bursts after a reconnect.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes how many operations are allowed within an interval.
// A Rate of {Limit: 100, Interval: time.Minute} permits 100 operations per minute.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// RateLimiter controls the pace of operations. Wait must be called before each
// rate-limited operation; it blocks until the operation may proceed or the
// context is cancelled.
type RateLimiter interface {
	// Wait blocks until a token is available or the context is cancelled.
	Wait(ctx context.Context) error

	// SetLimit replaces the rate configuration at runtime.
	// Returns an error for non-positive limits or intervals.
	SetLimit(limit Rate) error
}

// uberLimiter implements RateLimiter on top of Uber's token bucket.
type uberLimiter struct {
	mu      sync.RWMutex
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter creates a rate limiter using Uber's token bucket
// implementation. The Rate is converted to operations per second; at least one
// operation per second is always permitted to avoid a zero-rate limiter.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	return &uberLimiter{
		limiter: ratelimit.New(perSecond(rate)),
		rate:    rate,
	}
}

func perSecond(rate Rate) int {
	if rate.Interval <= 0 {
		return 1
	}
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	return rps
}

// Wait implements the RateLimiter interface. If the context is already done it
// returns immediately; otherwise it takes a token, blocking as needed to keep
// the configured pace.
func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
	}

	l.mu.RLock()
	limiter := l.limiter
	l.mu.RUnlock()

	limiter.Take()
	return nil
}

// SetLimit implements the RateLimiter interface. The new rate takes effect for
// subsequent Wait calls; a Wait already blocked on the old bucket is unaffected.
func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}

	l.mu.Lock()
	l.limiter = ratelimit.New(perSecond(rate))
	l.rate = rate
	l.mu.Unlock()
	return nil
}
