package rewrite

import (
	"ai-agent-be/internal/pkg/logger"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "rewrite:v1:"

// CachedRewriter memoises rewrites in Redis. Cache failures are logged and
// bypassed; only the wrapped rewriter's errors reach the caller.
type CachedRewriter struct {
	next   Rewriter
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.ILogger
}

func NewCachedRewriter(next Rewriter, client redis.UniversalClient, ttl time.Duration, log logger.ILogger) *CachedRewriter {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedRewriter{next: next, client: client, ttl: ttl, logger: log}
}

func (c *CachedRewriter) Rewrite(ctx context.Context, query string) ([]string, error) {
	key := cacheKey(query)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var variants []string
		if jsonErr := json.Unmarshal(raw, &variants); jsonErr == nil && len(variants) > 0 && variants[0] == query {
			return variants, nil
		}
		c.logger.Warn("Rewrite", "Discarding malformed cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Rewrite", "Cache read failed", map[string]interface{}{"error": err.Error()})
	}

	variants, err := c.next.Rewrite(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(variants); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("Rewrite", "Cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return variants, nil
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
