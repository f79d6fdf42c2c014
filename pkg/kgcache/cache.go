// Package kgcache implements the cost-reduction cache: fetched documents,
// cleaned text, embeddings, source scores, and extraction results, keyed by
// a SHA-256 digest over cache type and arguments with a per-type TTL. The
// interface permits substituting an external store (pkg/kgcache/redis.go)
// without callers changing.
package kgcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// CacheType identifies which TTL class a key belongs to.
type CacheType string

// Recognized cache types and their default TTLs.
const (
	TypeFetchedDoc       CacheType = "fetched_doc"
	TypeCleanedText      CacheType = "cleaned_text"
	TypeEmbedding        CacheType = "embedding"
	TypeSourceScore      CacheType = "source_score"
	TypeExtractionResult CacheType = "extraction_result"
)

var defaultTTLs = map[CacheType]time.Duration{
	TypeFetchedDoc:       24 * time.Hour,
	TypeCleanedText:      24 * time.Hour,
	TypeEmbedding:        7 * 24 * time.Hour,
	TypeSourceScore:      time.Hour,
	TypeExtractionResult: 24 * time.Hour,
}

const fallbackTTL = time.Hour

// DefaultTTL returns the configured TTL for a cache type, falling back to
// one hour for unrecognized types.
func DefaultTTL(t CacheType) time.Duration {
	if ttl, ok := defaultTTLs[t]; ok {
		return ttl
	}
	return fallbackTTL
}

// MakeKey builds the cache key: SHA-256 over
// "cache_type|args|sorted(kwargs-as-json)".
func MakeKey(cacheType CacheType, args []string, kwargs map[string]interface{}) string {
	parts := []string{string(cacheType)}
	if len(args) > 0 {
		parts = append(parts, strings.Join(args, ","))
	}
	if len(kwargs) > 0 {
		parts = append(parts, sortedJSON(kwargs))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func sortedJSON(kwargs map[string]interface{}) string {
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]struct {
		Key   string      `json:"key"`
		Value interface{} `json:"value"`
	}, len(keys))
	for i, k := range keys {
		ordered[i].Key = k
		ordered[i].Value = kwargs[k]
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	return string(b)
}

// Cache is the substitutable cache interface: an in-process map
// (MemoryCache) or an external store (RedisCache) may implement it.
type Cache interface {
	Get(ctx context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}) (string, bool, error)
	Set(ctx context.Context, cacheType CacheType, args []string, kwargs map[string]interface{}, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, cacheType CacheType) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats reports cache occupancy.
type Stats struct {
	TotalEntries  int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
	ActiveEntries int `json:"active_entries"`
}
