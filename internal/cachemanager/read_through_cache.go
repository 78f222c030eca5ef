package cachemanager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/tourscout/internal/log"
)

// ReadThroughCache loads missing values and stores them. Concurrent misses
// for the same key share one load, so a burst of snapshot updates asking
// for one country's hotels hits the loader once.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache  CacheManager[K, V]
	load   func(ctx context.Context, input I) (V, error)
	bypass bool

	flight singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewReadThroughCache wraps cache. With bypass set every Get calls load
// directly.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:  cache,
		load:   load,
		bypass: bypass,
	}
}

// Get returns the cached value for key, loading it from input on a miss.
// Errors are never cached.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.bypass {
		return r.load(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		r.hits.Add(1)
		return value, nil
	}
	r.misses.Add(1)

	res, err, shared := r.flight.Do(fmt.Sprint(key), func() (any, error) {
		value, err := r.load(ctx, input)
		if err != nil {
			return nil, err
		}
		r.cache.Set(ctx, key, value, ttl)
		return value, nil
	})
	if shared {
		log.Debug(log.CatCache, "joined in-flight load", "key", key)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	value, _ := res.(V)
	return value, nil
}

// Stats returns how many Gets were served from the cache and how many
// missed.
func (r *ReadThroughCache[K, V, I]) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
