package services

import (
	"context"
	"strings"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"
)

// DocumentPricingService определяет цену документа за экземпляр по таблице цен города.
type DocumentPricingService struct {
	store CityPricingStore
	cache *referenceCache
	log   *logger.Logger
}

// cityPricingEntry кеширует и наличие, и отсутствие таблицы города.
type cityPricingEntry struct {
	Found   bool                `json:"found"`
	Pricing *models.CityPricing `json:"pricing,omitempty"`
}

// NewDocumentPricingService создаёт сервис цен на документы.
func NewDocumentPricingService(store CityPricingStore, cache Cache, log *logger.Logger, ttl time.Duration) *DocumentPricingService {
	return &DocumentPricingService{
		store: store,
		cache: newReferenceCache(cache, log, "city_pricing", ttl),
		log:   log,
	}
}

// UnitPrice возвращает цену за экземпляр. Порядок поиска: запрошенная служба,
// затем mairie, sous_prefecture, justice, затем базовая цена документа из каталога.
func (s *DocumentPricingService) UnitPrice(ctx context.Context, docType models.DocumentType, city string, service models.ServiceType) (int64, error) {
	info, ok := models.LookupDocument(docType)
	if !ok {
		return 0, apperror.Validation("unknown document type", nil)
	}

	pricing, err := s.cityPricing(ctx, city)
	if err != nil {
		return 0, err
	}

	if pricing != nil {
		if service != "" {
			if price, ok := pricing.Price(service, docType); ok {
				return price, nil
			}
		}
		for _, fallback := range models.ServiceFallbackOrder {
			if price, ok := pricing.Price(fallback, docType); ok {
				return price, nil
			}
		}
	}

	return info.BasePrice, nil
}

// LineTotal возвращает стоимость строки: цена за экземпляр × количество.
func LineTotal(unitPrice int64, copies int) int64 {
	return unitPrice * int64(copies)
}

// BuildOrderLine собирает строку заказа по цене города.
func (s *DocumentPricingService) BuildOrderLine(ctx context.Context, docType models.DocumentType, city string, service models.ServiceType, copies int) (models.DocumentOrderLine, error) {
	if copies < 1 {
		return models.DocumentOrderLine{}, apperror.Validation("copies must be at least 1", nil)
	}

	unit, err := s.UnitPrice(ctx, docType, city, service)
	if err != nil {
		return models.DocumentOrderLine{}, err
	}

	info, _ := models.LookupDocument(docType)
	return models.DocumentOrderLine{
		DocumentType: docType,
		DocumentName: info.Name,
		Copies:       copies,
		UnitPrice:    unit,
		TotalPrice:   LineTotal(unit, copies),
	}, nil
}

func (s *DocumentPricingService) cityPricing(ctx context.Context, city string) (*models.CityPricing, error) {
	name := strings.TrimSpace(city)
	if name == "" {
		return nil, nil
	}

	key := redis.GenerateKey(redis.KeyPrefixCityPricing, name)
	var cached cityPricingEntry
	if s.cache.tryGet(ctx, key, &cached) {
		return cached.Pricing, nil
	}

	pricing, err := s.store.CityPricing(ctx, name)
	if err != nil {
		return nil, unavailable("city pricing unavailable", err)
	}

	s.cache.save(ctx, key, cityPricingEntry{Found: pricing != nil, Pricing: pricing})
	return pricing, nil
}
