package ledger

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]string{"total": "620.00"}, nil
	}

	key, err := cache.BuildKey(ctx, "trial-balance", "2025-12-31")
	require.NoError(t, err)

	var first map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, "620.00", first["total"])
	require.Equal(t, 1, calls)

	// Second fetch hits the cached payload.
	var second map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestBumpVersionOrphansOldKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "trial-balance", "2025-12-31")
	require.NoError(t, err)

	require.NoError(t, cache.BumpVersion(ctx))

	after, err := cache.BuildKey(ctx, "trial-balance", "2025-12-31")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestNilCachePassesThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "general-ledger", "10")
	require.NoError(t, err)
	require.Equal(t, "general-ledger:10", key)

	calls := 0
	var out map[string]int
	err = cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		calls++
		return map[string]int{"rows": 3}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 3, out["rows"])

	// Nothing is stored, so the loader runs again.
	err = cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		calls++
		return map[string]int{"rows": 3}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
