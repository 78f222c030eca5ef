package cachemanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type jobKey string

type jobEntry struct {
	Country string
	Polls   int
}

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "t1", jobEntry{Country: "UA"}, DefaultExpiration)

	got, ok := cache.Get(ctx, "t1")
	require.True(t, ok)
	require.Equal(t, jobEntry{Country: "UA"}, got)
	require.Equal(t, 1, cache.Count())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_WrongType(t *testing.T) {
	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("t1", 123, DefaultExpiration)

	_, ok := cache.Get(context.Background(), "t1")
	require.False(t, ok)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "t1", jobEntry{}, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "t1")
		return !ok
	}, time.Second, time.Millisecond)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	require.NoError(t, cache.Delete(ctx))

	cache.Set(ctx, "t1", jobEntry{}, DefaultExpiration)
	cache.Set(ctx, "t2", jobEntry{}, DefaultExpiration)
	cache.Set(ctx, "t3", jobEntry{}, DefaultExpiration)

	require.NoError(t, cache.Delete(ctx, "t1", "t2"))
	_, ok := cache.Get(ctx, "t1")
	require.False(t, ok)
	require.Equal(t, 1, cache.Count())

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Count())
}

func TestInMemoryCacheManager_OnEvicted(t *testing.T) {
	var mu sync.Mutex
	var evicted []jobKey

	cache := NewInMemoryCacheManager[jobKey, jobEntry]("jobs", DefaultExpiration, 2*time.Millisecond,
		WithOnEvicted(func(key jobKey, _ jobEntry) {
			mu.Lock()
			defer mu.Unlock()
			evicted = append(evicted, key)
		}),
	)
	ctx := context.Background()

	cache.Set(ctx, "cancelled", jobEntry{}, DefaultExpiration)
	require.NoError(t, cache.Delete(ctx, "cancelled"))

	cache.Set(ctx, "expired", jobEntry{}, time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(evicted) == 2
	}, time.Second, 5*time.Millisecond, "janitor should evict the expired entry")

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []jobKey{"cancelled", "expired"}, evicted)
}
