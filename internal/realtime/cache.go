package realtime

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shelfdex/shelfdex/pkg/config"
	pkgredis "github.com/shelfdex/shelfdex/pkg/redis"
	"github.com/shelfdex/shelfdex/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "search:"

// cacheBreakerConfig trips the query cache's Redis circuit after a burst of
// failures, so a degraded Redis adds one failed round trip per window
// instead of a timeout on every search request.
var cacheBreakerConfig = resilience.CircuitBreakerConfig{
	FailureThreshold:    5,
	ResetTimeout:        10 * time.Second,
	HalfOpenMaxRequests: 1,
}

// QueryCache sits in front of Indexer.Search, de-duplicating concurrent
// identical queries with singleflight and caching completed results in
// Redis under a TTL. A cache miss never fails the query: cache errors are
// logged and treated as a miss.
type QueryCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	breaker *resilience.CircuitBreaker
}

// NewQueryCache creates a QueryCache backed by the given Redis client.
func NewQueryCache(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client:  client,
		cfg:     cfg,
		logger:  slog.Default().With("component", "query-cache"),
		breaker: resilience.NewCircuitBreaker("query_cache_redis", cacheBreakerConfig),
	}
}

// Search returns a cached result for (query, topK) if present; otherwise
// it calls idx.Search, caches the outcome, and returns it. Concurrent
// identical queries share one underlying Indexer.Search call. The
// returned bool reports whether the result came from the cache.
func (c *QueryCache) Search(ctx context.Context, idx *Indexer, query string, topK int) ([]SearchHit, bool, error) {
	key := c.buildKey(query, topK)

	if hits, ok := c.get(ctx, key); ok {
		return hits, true, nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if hits, ok := c.get(ctx, key); ok {
			return hits, nil
		}
		hits, err := idx.Search(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, hits)
		return hits, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]SearchHit), false, nil
}

func (c *QueryCache) get(ctx context.Context, key string) ([]SearchHit, bool) {
	var data string
	err := c.breaker.Execute(func() error {
		d, err := c.client.Get(ctx, key)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		if !pkgredis.IsNilError(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var hits []SearchHit
	if err := json.Unmarshal([]byte(data), &hits); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return hits, true
}

func (c *QueryCache) set(ctx context.Context, key string, hits []SearchHit) {
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate flushes every cached search result, called after a flush()
// changes what a query would return.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	var deleted int64
	err := c.breaker.Execute(func() error {
		d, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
		if err != nil {
			return err
		}
		deleted = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the cumulative hit and miss counters.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey produces a deterministic cache key from the normalized query
// and top_k, the pair the external API's (query, top_k) contract already
// treats as the request identity.
func (c *QueryCache) buildKey(query string, topK int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	raw := fmt.Sprintf("%s:top_k=%d", normalized, topK)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:16])
}
