package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	cached := []Result{{Title: "Mercado de cafe", Url: "https://example.com/cafe", Source: "google"}}
	b, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectGet(cacheKey("mercado de cafe brasil")).SetVal(string(b))

	cache := NewQueryCache(rdb, time.Hour)
	results, ok := cache.Get(context.Background(), "mercado de cafe brasil")
	require.True(t, ok)
	assert.Equal(t, cached, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCacheMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	mock.ExpectGet(cacheKey("unknown query")).RedisNil()

	cache := NewQueryCache(rdb, time.Hour)
	_, ok := cache.Get(context.Background(), "unknown query")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCacheCorruptedEntry(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	mock.ExpectGet(cacheKey("bad entry")).SetVal("not json")
	mock.ExpectDel(cacheKey("bad entry")).SetVal(1)

	cache := NewQueryCache(rdb, time.Hour)
	_, ok := cache.Get(context.Background(), "bad entry")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCacheSet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	results := []Result{{Title: "Resultado", Url: "https://example.com", Source: "serper"}}
	b, err := json.Marshal(results)
	require.NoError(t, err)

	mock.ExpectSet(cacheKey("nova query"), b, time.Hour).SetVal("OK")

	cache := NewQueryCache(rdb, time.Hour)
	cache.Set(context.Background(), "nova query", results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCacheNilClient(t *testing.T) {
	cache := NewQueryCache(nil, time.Hour)
	_, ok := cache.Get(context.Background(), "query")
	assert.False(t, ok)
	cache.Set(context.Background(), "query", []Result{{Url: "https://example.com"}})
}
