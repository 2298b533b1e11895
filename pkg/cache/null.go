package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. Every Get misses and every index is empty.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

func (*NullCache) AddMember(context.Context, string, string) error { return nil }

func (*NullCache) RemoveMember(context.Context, string, string) error { return nil }

func (*NullCache) Members(context.Context, string) ([]string, error) { return nil, nil }

var _ IndexedCache = (*NullCache)(nil)
