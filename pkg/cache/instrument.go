package cache

import (
	"context"
	"time"

	"github.com/matzehuels/graphreveal/pkg/observability"
)

// instrumented reports hits, misses and writes to the registered cache hooks.
type instrumented struct {
	IndexedCache
}

// Instrument wraps c so every Get and Set is reported to
// [observability.Cache], labelled with [KeyType].
func Instrument(c IndexedCache) IndexedCache {
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{c}
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.IndexedCache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.IndexedCache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}
