package services

import (
	"context"
	"time"

	"document-delivery/internal/models"

	"github.com/google/uuid"
)

// TariffStore возвращает активный тариф; nil без ошибки означает "тарифа нет".
type TariffStore interface {
	ActiveTariff(ctx context.Context) (*models.TariffConfig, error)
}

// PickupPointStore ищет координату мэрии коммуны.
type PickupPointStore interface {
	PickupPoint(ctx context.Context, commune string) (*models.CommunePickupPoint, error)
}

// SectorStore читает районы доставки.
type SectorStore interface {
	ActiveSectors(ctx context.Context, commune string) ([]models.DeliverySector, error)
	Sector(ctx context.Context, id uuid.UUID) (*models.DeliverySector, error)
}

// ZoneStore читает зоны доставки.
type ZoneStore interface {
	ActiveZones(ctx context.Context) ([]models.DeliveryZone, error)
}

// CityPricingStore читает таблицы цен городов; nil без ошибки означает "таблицы нет".
type CityPricingStore interface {
	CityPricing(ctx context.Context, city string) (*models.CityPricing, error)
}

// Cache: JSON-кеш поверх Redis. Get возвращает ошибку, совместимую с redis.ErrCacheMiss, при промахе.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// EventPublisher публикует события заказа.
type EventPublisher interface {
	PublishOrderCreated(order *models.DocumentOrder) error
	PublishBillingCaptured(order *models.DocumentOrder) error
}
