package evaluate

import (
	"context"
	"fmt"
)

// Waiter blocks until a keyed call may proceed. worker.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// RateLimitedOracle waits on a shared limiter, keyed by oracle name, before each call.
type RateLimitedOracle struct {
	next    Oracle
	limiter Waiter
}

// NewRateLimitedOracle wraps next.
func NewRateLimitedOracle(next Oracle, limiter Waiter) *RateLimitedOracle {
	return &RateLimitedOracle{next: next, limiter: limiter}
}

func (o *RateLimitedOracle) Name() string { return o.next.Name() }

func (o *RateLimitedOracle) Score(ctx context.Context, req Request) (*Response, error) {
	if err := o.limiter.Wait(ctx, o.next.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return o.next.Score(ctx, req)
}
