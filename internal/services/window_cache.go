package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const windowKeyPrefix = "claim:window:"

// WindowCache remembers addresses known to be inside their claim window. It only
// ever short-circuits rejections; the store stays authoritative for acceptance.
type WindowCache interface {
	BlockedUntil(ctx context.Context, address string) (time.Time, bool, error)
	Block(ctx context.Context, address string, until, now time.Time) error
}

// NewWindowCache prefers redis and falls back to an in-process cache.
func NewWindowCache(rdb *redis.Client) WindowCache {
	if rdb != nil {
		return NewRedisWindowCache(rdb)
	}
	return NewMemoryWindowCache(10 * time.Minute)
}

type NopWindowCache struct{}

func (NopWindowCache) BlockedUntil(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (NopWindowCache) Block(context.Context, string, time.Time, time.Time) error {
	return nil
}

type RedisWindowCache struct {
	rdb *redis.Client
}

func NewRedisWindowCache(rdb *redis.Client) *RedisWindowCache {
	return &RedisWindowCache{rdb: rdb}
}

func (c *RedisWindowCache) BlockedUntil(ctx context.Context, address string) (time.Time, bool, error) {
	val, err := c.rdb.Get(ctx, windowKeyPrefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get: %w", err)
	}
	until, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cached window: %w", err)
	}
	return until, true, nil
}

func (c *RedisWindowCache) Block(ctx context.Context, address string, until, now time.Time) error {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, windowKeyPrefix+address, until.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

type MemoryWindowCache struct {
	cache *gocache.Cache
}

func NewMemoryWindowCache(cleanupInterval time.Duration) *MemoryWindowCache {
	return &MemoryWindowCache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryWindowCache) BlockedUntil(_ context.Context, address string) (time.Time, bool, error) {
	v, found := c.cache.Get(windowKeyPrefix + address)
	if !found {
		return time.Time{}, false, nil
	}
	return v.(time.Time), true, nil
}

func (c *MemoryWindowCache) Block(_ context.Context, address string, until, now time.Time) error {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return nil
	}
	c.cache.Set(windowKeyPrefix+address, until, ttl)
	return nil
}
