package services

import (
	"context"
	"fmt"

	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"
)

// CacheInvalidator сбрасывает кеши справочников по событиям из Kafka.
type CacheInvalidator struct {
	cache Cache
	log   *logger.Logger
}

// NewCacheInvalidator создаёт обработчик инвалидации.
func NewCacheInvalidator(cache Cache, log *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, log: log}
}

var referencePrefixes = map[string][]string{
	models.ReferencePickupPoints: {redis.KeyPrefixPickupPoint},
	models.ReferenceSectors:      {redis.KeyPrefixSectors},
	models.ReferenceZones:        {redis.KeyPrefixZones},
	models.ReferenceCityPricing:  {redis.KeyPrefixCityPricing},
}

// HandleTariffUpdated удаляет закешированный снимок тарифа.
func (c *CacheInvalidator) HandleTariffUpdated(ctx context.Context, event *models.Event) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Delete(ctx, redis.GenerateKey(redis.KeyPrefixTariff)); err != nil {
		return fmt.Errorf("failed to invalidate tariff cache: %w", err)
	}
	c.log.WithField("event_id", event.ID).Info("Tariff cache invalidated")
	return nil
}

// HandleReferenceUpdated удаляет кеш набора из data["dataset"]; без набора сбрасываются все справочники.
func (c *CacheInvalidator) HandleReferenceUpdated(ctx context.Context, event *models.Event) error {
	if c.cache == nil {
		return nil
	}

	var prefixes []string
	dataset, _ := event.Data["dataset"].(string)
	if dataset == "" {
		for _, p := range referencePrefixes {
			prefixes = append(prefixes, p...)
		}
	} else {
		known, ok := referencePrefixes[dataset]
		if !ok {
			c.log.WithField("dataset", dataset).Warn("Unknown reference dataset in event, ignoring")
			return nil
		}
		prefixes = known
	}

	for _, prefix := range prefixes {
		if err := c.cache.DeleteByPrefix(ctx, prefix); err != nil {
			return fmt.Errorf("failed to invalidate %s cache: %w", prefix, err)
		}
	}

	c.log.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"dataset":  dataset,
	}).Info("Reference cache invalidated")
	return nil
}
