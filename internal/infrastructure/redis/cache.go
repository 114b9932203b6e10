package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// DefaultCachePrefix namespaces directory entries (workshops) in a shared Redis.
const DefaultCachePrefix = "accesscontrol:cache"

// Cache implements ports.Cache on Redis. Only directory data goes through it; access
// decisions and audit data never do.
type Cache struct {
	r      redis.Cmdable
	prefix string
}

var _ ports.Cache = (*Cache)(nil)

// NewCache creates a Redis-backed cache. An empty prefix uses DefaultCachePrefix.
func NewCache(r redis.Cmdable, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return &Cache{r: r, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.r.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.r.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}
