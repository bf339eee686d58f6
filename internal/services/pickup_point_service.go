package services

import (
	"context"
	"strings"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/logger"
	"document-delivery/internal/metrics"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"
)

// PickupPointResolver находит координату мэрии коммуны, откуда курьер забирает документ.
type PickupPointResolver struct {
	store    PickupPointStore
	cache    *referenceCache
	log      *logger.Logger
	fallback models.GeoPoint
}

// NewPickupPointResolver создаёт резолвер. fallback используется для коммун без зарегистрированной мэрии.
func NewPickupPointResolver(store PickupPointStore, cache Cache, log *logger.Logger, fallback models.GeoPoint, ttl time.Duration) *PickupPointResolver {
	return &PickupPointResolver{
		store:    store,
		cache:    newReferenceCache(cache, log, "pickup_point", ttl),
		log:      log,
		fallback: fallback,
	}
}

// Resolve возвращает точку выдачи коммуны (без учёта регистра).
// Нет записи → apperror.KindNotFound, сбой хранилища → apperror.KindUnavailable.
func (r *PickupPointResolver) Resolve(ctx context.Context, commune string) (models.GeoPoint, error) {
	name := strings.TrimSpace(commune)
	if name == "" {
		return models.GeoPoint{}, apperror.NotFound("pickup point not found", nil)
	}

	key := redis.GenerateKey(redis.KeyPrefixPickupPoint, name)
	var cached models.GeoPoint
	if r.cache.tryGet(ctx, key, &cached) {
		return cached, nil
	}

	point, err := r.store.PickupPoint(ctx, name)
	if err != nil {
		return models.GeoPoint{}, unavailable("pickup points unavailable", err)
	}

	r.cache.save(ctx, key, point.Location)
	return point.Location, nil
}

// ResolveWithFallback как Resolve, но для неизвестной коммуны возвращает резервную точку
// и usedFallback = true. Сбой хранилища не маскируется резервной точкой.
func (r *PickupPointResolver) ResolveWithFallback(ctx context.Context, commune string) (point models.GeoPoint, usedFallback bool, err error) {
	point, err = r.Resolve(ctx, commune)
	if err == nil {
		return point, false, nil
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		return models.GeoPoint{}, false, err
	}

	r.log.WithField("commune", commune).Warn("No pickup point registered for commune, using fallback coordinate")
	metrics.PickupFallbackTotal.Inc()
	return r.fallback, true, nil
}
