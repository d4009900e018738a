package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueryCache stores search results in Redis keyed by a hash of the query, so
// repeated analyses of the same segment do not burn provider quota.
type QueryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQueryCache creates a cache with the given ttl. If ttl is 0 it defaults
// to one hour.
func NewQueryCache(rdb *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryCache{rdb: rdb, ttl: ttl}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "search:" + hex.EncodeToString(sum[:])
}

// Get returns the cached results for query, or (nil, false) on a miss.
// Corrupted entries are deleted and treated as misses.
func (c *QueryCache) Get(ctx context.Context, query string) ([]Result, bool) {
	if c.rdb == nil {
		return nil, false
	}

	key := cacheKey(query)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}

	var results []Result
	if err := json.Unmarshal(b, &results); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return results, true
}

// Set stores results for query, best effort.
func (c *QueryCache) Set(ctx context.Context, query string, results []Result) {
	if c.rdb == nil || len(results) == 0 {
		return
	}

	b, err := json.Marshal(results)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKey(query), b, c.ttl).Err()
}
