package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/memory"
	"github.com/workshopops/accesscontrol/internal/infrastructure/redis"
	"github.com/workshopops/accesscontrol/internal/infrastructure/repositories"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRateLimitRedisRepository_CountsPerPrincipal(t *testing.T) {
	_, client := newRedis(t)
	repo := repositories.NewRateLimitRedisRepository(client)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	for i := 1; i <= 3; i++ {
		n, _, err := repo.IncrementWindow(ctx, a, time.Minute, "rl", 2*time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, n)
	}
	n, _, err := repo.IncrementWindow(ctx, b, time.Minute, "rl", 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTokenRevocationRedisRepository(t *testing.T) {
	mr, client := newRedis(t)
	repo := repositories.NewTokenRevocationRedisRepository(client, nil)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "hash", time.Now().Add(time.Minute)))
	revoked, err = repo.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	require.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = repo.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestTokenRevocationRedisRepository_SkipsExpiredTokens(t *testing.T) {
	mr, client := newRedis(t)
	repo := repositories.NewTokenRevocationRedisRepository(client, nil)

	require.NoError(t, repo.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	require.Empty(t, mr.Keys())
}

type countingTenants struct {
	ports.TenantRepository
	gets int
}

func (c *countingTenants) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	c.gets++
	return c.TenantRepository.GetByID(ctx, id)
}

func TestCachingTenantRepository_ServesRepeatReadsFromCache(t *testing.T) {
	_, client := newRedis(t)
	inner := &countingTenants{TenantRepository: memory.NewStore().Tenants()}
	repo := repositories.NewCachingTenantRepository(inner, redis.NewCache(client, ""), time.Minute)
	ctx := context.Background()

	w := &tenant.Tenant{ID: uuid.New(), Name: "Oficina Centro", Slug: "oficina-centro", Status: tenant.TenantStatusActive, CreatedAt: time.Now().UTC()}
	require.NoError(t, inner.Create(ctx, w))

	for i := 0; i < 3; i++ {
		got, err := repo.GetByID(ctx, w.ID)
		require.NoError(t, err)
		require.Equal(t, "oficina-centro", got.Slug)
	}
	require.Equal(t, 1, inner.gets)

	bySlug, err := repo.GetBySlug(ctx, "oficina-centro")
	require.NoError(t, err)
	require.Equal(t, w.ID, bySlug.ID)
}

func TestCachingTenantRepository_CreateInvalidatesList(t *testing.T) {
	_, client := newRedis(t)
	repo := repositories.NewCachingTenantRepository(memory.NewStore().Tenants(), redis.NewCache(client, ""), time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &tenant.Tenant{ID: uuid.New(), Name: "A", Slug: "a", CreatedAt: time.Now()}))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.Create(ctx, &tenant.Tenant{ID: uuid.New(), Name: "B", Slug: "b", CreatedAt: time.Now()}))
	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
