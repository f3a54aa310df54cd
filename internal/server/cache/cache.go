// Package cache is the Redis-backed cache for knowledge-base search
// responses. Concurrent misses for the same query collapse into a single
// computation via singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/narongchai190/soiler/internal/retrieval/citation"
	"github.com/narongchai190/soiler/pkg/config"
	pkgredis "github.com/narongchai190/soiler/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "soiler:search:"

// QueryCache caches search results keyed by normalized query and topK.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for a query, if present. Redis failures
// count as misses; the cache never fails a search.
func (c *QueryCache) Get(ctx context.Context, query string, topK int) ([]citation.SearchResult, bool) {
	key := c.buildKey(query, topK)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []citation.SearchResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return results, true
}

// Set stores results for a query with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query string, topK int, results []citation.SearchResult) {
	key := c.buildKey(query, topK)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached results or computes and stores them,
// collapsing concurrent computations of the same key. The bool reports
// whether the value came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	topK int,
	computeFn func() ([]citation.SearchResult, error),
) ([]citation.SearchResult, bool, error) {
	if results, ok := c.Get(ctx, query, topK); ok {
		return results, true, nil
	}
	key := c.buildKey(query, topK)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, query, topK); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, topK, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]citation.SearchResult), false, nil
}

// Invalidate drops every cached search response, e.g. after an index
// rebuild.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating search cache: %w", err)
	}
	c.logger.Info("search cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the normalized query so arbitrary user input never lands
// in a Redis key.
func (c *QueryCache) buildKey(query string, topK int) string {
	terms := strings.Fields(strings.ToLower(query))
	sort.Strings(terms)
	raw := fmt.Sprintf("%s:topk=%d", strings.Join(terms, ","), topK)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
