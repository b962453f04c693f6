package ratelimit

import "context"

// RateLimiter throttles outbound email per send stream (delivery, reminder)
// so a large batch cannot blow through the relay's quota.
type RateLimiter interface {
	Allow(ctx context.Context, stream string) (bool, error)
	Wait(ctx context.Context, stream string) error
}
