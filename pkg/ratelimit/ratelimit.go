package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// RequestLimiter throttles outbound requests to a per-minute budget.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter creates a limiter allowing maxPerMinute requests,
// with a burst of one. A non-positive budget disables limiting.
func NewRequestLimiter(maxPerMinute int) *RequestLimiter {
	if maxPerMinute <= 0 {
		return &RequestLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RequestLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), 1),
	}
}

// Wait blocks until a request slot is available or the context is done.
func (l *RequestLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
