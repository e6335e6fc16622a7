package webanalysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"motion-server/internal/models"
)

const cacheKeyPrefix = "webanalysis:"

// Compile-time check to ensure implementation satisfies the interface.
var _ Analyzer = (*CachedAnalyzer)(nil)

// CachedAnalyzer caches analysis results in redis by normalized URL. Redis
// being down is never an error: every cache failure falls through to the
// wrapped analyzer.
type CachedAnalyzer struct {
	inner  Analyzer
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAnalyzer wraps an analyzer with a redis cache.
func NewCachedAnalyzer(inner Analyzer, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Named("WebAnalysisCache"),
	}
}

// Analyze returns the cached result for the URL or delegates to the wrapped
// analyzer and stores what it returns.
func (c *CachedAnalyzer) Analyze(ctx context.Context, targetURL string) (*models.WebContext, error) {
	key := cacheKeyPrefix + targetURL

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached models.WebContext
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			c.logger.Debug("Web analysis cache hit", zap.String("url", targetURL))
			return &cached, nil
		}
		c.logger.Warn("Dropping unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Web analysis cache unavailable", zap.Error(err))
	}

	result, err := c.inner.Analyze(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(result); marshalErr == nil {
		if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Failed to cache web analysis result", zap.Error(setErr))
		}
	}
	return result, nil
}
