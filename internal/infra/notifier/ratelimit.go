package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket to outgoing webhook calls.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing requestsPerSecond sustained and
// burst requests at once.
//
//	limiter := NewRateLimiter(0.5, 3) // 30 req/min with burst of 3
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
