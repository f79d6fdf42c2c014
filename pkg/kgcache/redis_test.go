package kgcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := NewRedisCache("redis://"+mr.Addr(), "kgcache:test:")
	require.NoError(t, err)
	return cache
}

func TestRedisCacheSetAndGet(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, TypeEmbedding, []string{"concept-1"}, nil, "[0.1,0.2]", 0))

	val, found, err := cache.Get(ctx, TypeEmbedding, []string{"concept-1"}, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[0.1,0.2]", val)
}

func TestRedisCacheMiss(t *testing.T) {
	cache := newTestRedisCache(t)
	_, found, err := cache.Get(context.Background(), TypeEmbedding, []string{"missing"}, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheInvalidateClearsPrefixedKeys(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, TypeEmbedding, []string{"a"}, nil, "1", 0))
	require.NoError(t, cache.Set(ctx, TypeFetchedDoc, []string{"b"}, nil, "2", 0))

	require.NoError(t, cache.Invalidate(ctx, ""))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
}
