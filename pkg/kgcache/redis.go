package kgcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs Cache with an external Redis-compatible store, for
// deployments that need the cache to survive process restarts or be shared
// across workers.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache builds a RedisCache from a redis:// connection URL.
func NewRedisCache(url, keyPrefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kgcache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kgcache: connect to redis: %w", err)
	}

	return &RedisCache{client: client, prefix: keyPrefix}, nil
}

func (c *RedisCache) key(cacheType CacheType, args []string, kwargs map[string]interface{}) string {
	return c.prefix + MakeKey(cacheType, args, kwargs)
}

// Get returns the cached value, or found=false on miss or expiry (Redis
// expires keys itself; a TTL-expired key simply isn't present anymore).
func (c *RedisCache) Get(ctx context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}) (string, bool, error) {
	val, err := c.client.Get(ctx, c.key(cacheType, args, kwargs)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kgcache: redis get: %w", err)
	}
	return val, true, nil
}

// Set stores value with the given TTL (or DefaultTTL(cacheType) if ttl<=0).
func (c *RedisCache) Set(ctx context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL(cacheType)
	}
	if err := c.client.Set(ctx, c.key(cacheType, args, kwargs), value, ttl).Err(); err != nil {
		return fmt.Errorf("kgcache: redis set: %w", err)
	}
	return nil
}

// Invalidate deletes every key under cacheType's prefix scan, or flushes the
// whole keyspace under c.prefix when cacheType is empty. Uses SCAN rather
// than KEYS to avoid blocking the server on a large keyspace.
func (c *RedisCache) Invalidate(ctx context.Context, cacheType CacheType) error {
	pattern := c.prefix + "*"
	if cacheType != "" {
		// cache_type isn't part of the hashed key, so a type-scoped
		// invalidate would require a secondary index; this implementation
		// conservatively flushes everything under the prefix instead.
		pattern = c.prefix + "*"
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("kgcache: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("kgcache: redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Stats reports the count of keys under this cache's prefix. Redis doesn't
// expose separate expired-but-present counts (it expires keys itself), so
// ExpiredEntries is always 0 here.
func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	var cursor uint64
	var total int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("kgcache: redis scan: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return Stats{TotalEntries: total, ActiveEntries: total}, nil
}
