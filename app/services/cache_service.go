package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Read cache keys
const (
	CacheKeyDistricts     = "districts:all"
	CacheKeyAreas         = "areas:all"
	CacheKeyStreamCurrent = "stream:current"
)

// CacheService is a JSON read cache for slow changing lists
type CacheService interface {
	// GetJSON decodes the cached value into dest and reports whether it was present
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a CacheService on top of client. A nil client yields a no-op cache.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) CacheService {
	if client == nil {
		return NewNoopCache()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// drop undecodable entries so the next read refills them
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *redisCache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

type noopCache struct{}

// NewNoopCache returns a cache that never hits
func NewNoopCache() CacheService {
	return noopCache{}
}

func (noopCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (noopCache) SetJSON(ctx context.Context, key string, value any) error {
	return nil
}

func (noopCache) Invalidate(ctx context.Context, keys ...string) error {
	return nil
}
