package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// Only workshop records are cached. Identities, employees, profiles and custom roles feed
// access decisions and are always read from the store.

// singleflight group for coalescing cache-miss loads in-process
var sf singleflight.Group

const (
	workshopsAllKey   = "workshops:all"
	workshopsCountKey = "workshops:count"
)

func workshopIDKey(id uuid.UUID) string { return "workshop:id:" + id.String() }
func workshopSlugKey(slug string) string { return "workshop:slug:" + slug }

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// loadOneWithSingleflight coalesces concurrent misses for one key.
func loadOneWithSingleflight[T any](cache ports.Cache, ctx context.Context, key string, loader func() (*T, error)) (*T, error) {
	if v, ok := cacheGet[T](cache, ctx, key); ok {
		return v, nil
	}
	res, err, _ := sf.Do(key, func() (any, error) {
		return loader()
	})
	if err != nil {
		return nil, err
	}
	v, ok := res.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return v, nil
}

// loadFullListWithSingleflight coalesces a full-list load using singleflight, caches the
// full list and optional count, and returns the list. The loader should fetch the
// complete list when called.
func loadFullListWithSingleflight[T any](cache ports.Cache, ctx context.Context, sfKey, listKey, countKey string, ttl time.Duration, loader func() ([]T, error)) ([]T, error) {
	if cache != nil {
		if v, ok := cacheGet[[]T](cache, ctx, listKey); ok {
			return *v, nil
		}
	}
	res, err, _ := sf.Do(sfKey, func() (any, error) {
		all, err := loader()
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cacheSetSilently(cache, ctx, listKey, all, ttl)
			if countKey != "" {
				cacheSetSilently(cache, ctx, countKey, len(all), ttl)
			}
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}

// CachingTenantRepository decorates a TenantRepository with cache-aside.
type CachingTenantRepository struct {
	inner ports.TenantRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingTenantRepository(inner ports.TenantRepository, cache ports.Cache, ttl time.Duration) ports.TenantRepository {
	return &CachingTenantRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingTenantRepository) remember(ctx context.Context, t *tenant.Tenant) {
	cacheSetSilently(c.cache, ctx, workshopIDKey(t.ID), t, c.ttl)
	cacheSetSilently(c.cache, ctx, workshopSlugKey(t.Slug), t, c.ttl)
}

func (c *CachingTenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	if err := c.inner.Create(ctx, t); err != nil {
		return err
	}
	c.remember(ctx, t)
	if c.cache != nil {
		// Invalidate full-list / count caches
		_ = c.cache.Delete(ctx, workshopsAllKey)
		_ = c.cache.Delete(ctx, workshopsCountKey)
	}
	return nil
}

func (c *CachingTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return loadOneWithSingleflight(c.cache, ctx, workshopIDKey(id), func() (*tenant.Tenant, error) {
		t, err := c.inner.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.remember(ctx, t)
		return t, nil
	})
}

func (c *CachingTenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return loadOneWithSingleflight(c.cache, ctx, workshopSlugKey(slug), func() (*tenant.Tenant, error) {
		t, err := c.inner.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		c.remember(ctx, t)
		return t, nil
	})
}

func (c *CachingTenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	loader := func() ([]*tenant.Tenant, error) {
		cnt, err := c.inner.Count(ctx)
		if err != nil {
			return nil, err
		}
		return c.inner.List(ctx, cnt, 0)
	}
	all, err := loadFullListWithSingleflight(c.cache, ctx, workshopsAllKey, workshopsAllKey, workshopsCountKey, c.ttl, loader)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return []*tenant.Tenant{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (c *CachingTenantRepository) Count(ctx context.Context) (int, error) {
	if c.cache != nil {
		if v, ok := cacheGet[int](c.cache, ctx, workshopsCountKey); ok {
			return *v, nil
		}
		if v, ok := cacheGet[[]*tenant.Tenant](c.cache, ctx, workshopsAllKey); ok {
			return len(*v), nil
		}
	}
	cnt, err := c.inner.Count(ctx)
	if err == nil && c.cache != nil {
		cacheSetSilently(c.cache, ctx, workshopsCountKey, cnt, c.ttl)
	}
	return cnt, err
}
