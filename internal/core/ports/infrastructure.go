package ports

import (
	"context"
	"time"
)

// Cache is a minimal key-value cache. Implementations return errors instead of panicking
// so callers can fall back to the primary store. Security decisions are never cached.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL (0 means no expiration).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// HealthChecker reports the reachability of one dependency for /health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
