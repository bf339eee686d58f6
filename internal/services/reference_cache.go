package services

import (
	"context"
	"errors"
	"time"

	"document-delivery/internal/logger"
	"document-delivery/internal/metrics"
	"document-delivery/internal/redis"
)

// referenceCache: read-through кеш справочников. Ошибки Redis не прерывают расчёт:
// при любой проблеме значение читается из хранилища.
type referenceCache struct {
	cache Cache
	log   *logger.Logger
	name  string
	ttl   time.Duration
}

func newReferenceCache(cache Cache, log *logger.Logger, name string, ttl time.Duration) *referenceCache {
	return &referenceCache{cache: cache, log: log, name: name, ttl: ttl}
}

func (c *referenceCache) enabled() bool {
	return c != nil && c.cache != nil && c.ttl > 0
}

func (c *referenceCache) tryGet(ctx context.Context, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}

	if err := c.cache.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.log.WithError(err).WithField("key", key).Warn("Failed to read reference cache")
		}
		metrics.CacheMiss(c.name)
		return false
	}
	metrics.CacheHit(c.name)
	return true
}

func (c *referenceCache) save(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}

	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Failed to cache reference data")
	}
}
