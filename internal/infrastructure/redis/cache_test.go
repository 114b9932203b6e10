package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/infrastructure/redis"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache_SetGetDelete(t *testing.T) {
	mr, client := newClient(t)
	c := redis.NewCache(client, "")
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "workshop:id:1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "workshop:id:1", []byte(`{"name":"x"}`), time.Minute))
	require.True(t, mr.Exists(redis.DefaultCachePrefix+":workshop:id:1"))

	v, ok, err := c.Get(ctx, "workshop:id:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"name":"x"}`, string(v))

	require.NoError(t, c.Delete(ctx, "workshop:id:1"))
	_, ok, err = c.Get(ctx, "workshop:id:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	mr, client := newClient(t)
	c := redis.NewCache(client, "test")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_ErrorsWhenServerDown(t *testing.T) {
	mr, client := newClient(t)
	c := redis.NewCache(client, "")
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}
