// internal/cache/completions.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"ticket-triage/internal/common/database"
	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
	"ticket-triage/internal/triage"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "completion:"

// CachedInvoker wraps an Invoker with a Redis completion cache keyed by the
// SHA-256 of the rendered prompt. Deterministic decoding makes completions
// reusable across runs. Cache failures degrade to a live model call and are
// never surfaced as row failures.
type CachedInvoker struct {
	next   triage.Invoker
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedInvoker(next triage.Invoker, client *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedInvoker {
	return &CachedInvoker{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "completion-cache"}),
	}
}

func (c *CachedInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)

	cached, err := c.client.Get(ctx, key)
	if err == nil {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WithError(commonerrors.NewCacheFailedError(err)).Warn("cache lookup failed, falling through to model", nil)
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	completion, err := c.next.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, completion, c.ttl); err != nil {
		c.logger.WithError(commonerrors.NewCacheFailedError(err)).Warn("cache write failed", nil)
	}

	return completion, nil
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return keyPrefix + hex.EncodeToString(sum[:])
}
