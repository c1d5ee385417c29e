package contracts

import (
	"context"
	"time"
)

// RateLimiter counts hits per key over a sliding window.
type RateLimiter interface {
	// Allow records a hit for key and reports whether it is within limit.
	// remaining is the number of hits left in the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}
