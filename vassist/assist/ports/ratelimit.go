package assistports

import "context"

// RateLimiter throttles remote calls per operation key.
type RateLimiter interface {
	// Acquire obtains a permit for key or fails immediately. release returns
	// the permit early when the call finishes ahead of the refill.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
