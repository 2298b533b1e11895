package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key and index name.
	Prefix string
}

// RedisCache stores entries as Redis strings and indexes as Redis sets.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	c := NewRedisCacheFromClient(client, cfg.Prefix)
	err := RetryWithBackoff(ctx, func() error {
		return c.transient(ctx, client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. The cache owns it and
// closes it on Close.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// transient marks connection level failures as retryable. Context errors
// are returned unchanged.
func (c *RedisCache) transient(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return err
	}
	return Retryable(fmt.Errorf("%w: %v", ErrUnavailable, err))
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := RetryWithBackoff(ctx, func() error {
		b, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return c.transient(ctx, err)
		}
		data, hit = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, hit, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return RetryWithBackoff(ctx, func() error {
		return c.transient(ctx, c.client.Set(ctx, c.prefix+key, data, ttl).Err())
	})
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, func() error {
		return c.transient(ctx, c.client.Del(ctx, c.prefix+key).Err())
	})
}

func (c *RedisCache) AddMember(ctx context.Context, index, member string) error {
	return RetryWithBackoff(ctx, func() error {
		return c.transient(ctx, c.client.SAdd(ctx, c.prefix+index, member).Err())
	})
}

func (c *RedisCache) RemoveMember(ctx context.Context, index, member string) error {
	return RetryWithBackoff(ctx, func() error {
		return c.transient(ctx, c.client.SRem(ctx, c.prefix+index, member).Err())
	})
}

func (c *RedisCache) Members(ctx context.Context, index string) ([]string, error) {
	var members []string
	err := RetryWithBackoff(ctx, func() error {
		m, err := c.client.SMembers(ctx, c.prefix+index).Result()
		if err != nil {
			return c.transient(ctx, err)
		}
		members = m
		return nil
	})
	return members, err
}

// Close closes the client.
func (c *RedisCache) Close() error { return c.client.Close() }

var _ IndexedCache = (*RedisCache)(nil)
