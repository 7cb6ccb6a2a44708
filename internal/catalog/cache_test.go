package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	stored := Product{
		Slug:  "brazilian-straight-bundle",
		Name:  "Brazilian Straight Bundle",
		Price: decimal.RequireFromString("650.00"),
		Stock: 40,
	}
	require.NoError(t, cache.SetJSON(ctx, "catalog:slug:brazilian-straight-bundle", stored))

	var loaded Product
	hit, err := cache.GetJSON(ctx, "catalog:slug:brazilian-straight-bundle", &loaded)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, stored.Slug, loaded.Slug)
	require.True(t, stored.Price.Equal(loaded.Price))
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)

	var loaded Product
	hit, err := cache.GetJSON(context.Background(), "catalog:slug:unknown", &loaded)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "catalog:slug:bob-wig", Product{Slug: "bob-wig"}))
	require.NoError(t, cache.Invalidate(ctx, "catalog:slug:bob-wig"))

	var loaded Product
	hit, err := cache.GetJSON(ctx, "catalog:slug:bob-wig", &loaded)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheNilClient(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "key", Product{}))
	hit, err := cache.GetJSON(ctx, "key", &Product{})
	require.NoError(t, err)
	require.False(t, hit)
}
