package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateLimitRepository provides atomic fixed-window counters. Implementations must be
// safe for concurrent use.
type RateLimitRepository interface {
	// IncrementWindow increments the counter for principal in the current window and makes
	// the key expire after ttl. Returns the updated count and the window start.
	IncrementWindow(ctx context.Context, principalID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService limits requests per authenticated principal.
type RateLimiterService interface {
	// Allow consumes one request unit for the principal on route ("METHOD /path") and
	// reports whether it is permitted.
	Allow(ctx context.Context, principalID uuid.UUID, route string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}
