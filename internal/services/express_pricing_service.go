package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/logger"
	"document-delivery/internal/metrics"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"

	"github.com/google/uuid"
)

// Origin: точка отправления экспресс-доставки: либо координата, либо коммуна.
type Origin struct {
	Point   *models.GeoPoint
	Commune string
}

// OriginPoint создаёт Origin из координаты.
func OriginPoint(p models.GeoPoint) Origin {
	return Origin{Point: &p}
}

// OriginCommune создаёт Origin из названия коммуны; координата берётся из мэрии коммуны.
func OriginCommune(name string) Origin {
	return Origin{Commune: name}
}

// ExpressPricingService считает цены экспресс-доставки по активному тарифу.
type ExpressPricingService struct {
	tariffs  TariffStore
	sectors  SectorStore
	zones    ZoneStore
	resolver *PickupPointResolver
	log      *logger.Logger
	depot    models.GeoPoint

	tariffCache    *referenceCache
	referenceCache *referenceCache
}

// ExpressPricingOptions: параметры сервиса, не зависящие от хранилища.
type ExpressPricingOptions struct {
	Depot        models.GeoPoint
	TariffTTL    time.Duration
	ReferenceTTL time.Duration
}

// NewExpressPricingService создаёт сервис экспресс-цен.
func NewExpressPricingService(
	tariffs TariffStore,
	sectors SectorStore,
	zones ZoneStore,
	resolver *PickupPointResolver,
	cache Cache,
	log *logger.Logger,
	opts ExpressPricingOptions,
) *ExpressPricingService {
	return &ExpressPricingService{
		tariffs:        tariffs,
		sectors:        sectors,
		zones:          zones,
		resolver:       resolver,
		log:            log,
		depot:          opts.Depot,
		tariffCache:    newReferenceCache(cache, log, "tariff", opts.TariffTTL),
		referenceCache: newReferenceCache(cache, log, "sectors", opts.ReferenceTTL),
	}
}

// ExpressPrice считает цену доставки от origin до района назначения.
// Возвращает nil без ошибки, если активного тарифа нет: цену пока назвать нельзя.
func (s *ExpressPricingService) ExpressPrice(ctx context.Context, origin Origin, destination models.DeliverySector) (*models.DistanceQuote, error) {
	return s.quote(ctx, "express", origin, destination.Location)
}

// PickupToDepotPrice считает цену курьерского плеча от мэрии коммуны до автовокзала.
func (s *ExpressPricingService) PickupToDepotPrice(ctx context.Context, originCommune string) (*models.DistanceQuote, error) {
	return s.quote(ctx, "depot", OriginCommune(originCommune), s.depot)
}

// ExpressPriceToSector загружает район по id и считает цену до него.
func (s *ExpressPricingService) ExpressPriceToSector(ctx context.Context, origin Origin, sectorID uuid.UUID) (*models.DistanceQuote, error) {
	sector, err := s.activeSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	return s.ExpressPrice(ctx, origin, *sector)
}

// SectorPrice считает цену между двумя районами.
func (s *ExpressPricingService) SectorPrice(ctx context.Context, fromSectorID, toSectorID uuid.UUID) (*models.DistanceQuote, error) {
	from, err := s.activeSector(ctx, fromSectorID)
	if err != nil {
		return nil, err
	}
	to, err := s.activeSector(ctx, toSectorID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, "sector", OriginPoint(from.Location), to.Location)
}

// ListCommunesWithActiveSectors группирует активные районы по коммуне.
// Коммуны идут в порядке первого появления, районы внутри коммуны по display_order.
func (s *ExpressPricingService) ListCommunesWithActiveSectors(ctx context.Context) ([]models.CommuneSectors, error) {
	sectors, err := s.allActiveSectors(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.CommuneSectors, 0)
	index := make(map[string]int)
	for _, sector := range sectors {
		i, ok := index[sector.Commune]
		if !ok {
			i = len(result)
			index[sector.Commune] = i
			result = append(result, models.CommuneSectors{Commune: sector.Commune})
		}
		result[i].Sectors = append(result[i].Sectors, sector)
	}

	for i := range result {
		sort.SliceStable(result[i].Sectors, func(a, b int) bool {
			return result[i].Sectors[a].DisplayOrder < result[i].Sectors[b].DisplayOrder
		})
	}
	return result, nil
}

// IsExpressAvailable сообщает, есть ли в коммуне хотя бы один активный район.
func (s *ExpressPricingService) IsExpressAvailable(ctx context.Context, commune string) (bool, error) {
	name := strings.TrimSpace(commune)
	if name == "" {
		return false, nil
	}

	sectors, err := s.sectors.ActiveSectors(ctx, name)
	if err != nil {
		return false, unavailable("delivery sectors unavailable", err)
	}
	return len(sectors) > 0, nil
}

// ActiveZones возвращает активные зоны доставки.
func (s *ExpressPricingService) ActiveZones(ctx context.Context) ([]models.DeliveryZone, error) {
	key := redis.GenerateKey(redis.KeyPrefixZones)

	var cached []models.DeliveryZone
	if s.referenceCache.tryGet(ctx, key, &cached) {
		return cached, nil
	}

	zones, err := s.zones.ActiveZones(ctx)
	if err != nil {
		return nil, unavailable("delivery zones unavailable", err)
	}
	if zones == nil {
		zones = []models.DeliveryZone{}
	}

	s.referenceCache.save(ctx, key, zones)
	return zones, nil
}

func (s *ExpressPricingService) quote(ctx context.Context, kind string, origin Origin, destination models.GeoPoint) (*models.DistanceQuote, error) {
	tariff, err := s.activeTariff(ctx)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(kind, metrics.QuoteResultError).Inc()
		return nil, err
	}
	if tariff == nil {
		metrics.QuotesTotal.WithLabelValues(kind, metrics.QuoteResultNoTariff).Inc()
		return nil, nil
	}

	from, err := s.resolveOrigin(ctx, origin)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(kind, metrics.QuoteResultError).Inc()
		return nil, err
	}

	quote, err := PriceFromDistance(from, destination, *tariff)
	if err != nil {
		s.log.WithError(err).Error("Active express tariff is invalid")
		metrics.QuotesTotal.WithLabelValues(kind, metrics.QuoteResultError).Inc()
		return nil, err
	}

	metrics.QuotesTotal.WithLabelValues(kind, metrics.QuoteResultOK).Inc()
	return &quote, nil
}

func (s *ExpressPricingService) resolveOrigin(ctx context.Context, origin Origin) (models.GeoPoint, error) {
	if origin.Point != nil {
		return *origin.Point, nil
	}
	point, _, err := s.resolver.ResolveWithFallback(ctx, origin.Commune)
	return point, err
}

// activeTariff возвращает копию снимка тарифа; nil без ошибки, если активного тарифа нет.
func (s *ExpressPricingService) activeTariff(ctx context.Context) (*models.TariffConfig, error) {
	key := redis.GenerateKey(redis.KeyPrefixTariff)

	var cached models.TariffConfig
	if s.tariffCache.tryGet(ctx, key, &cached) {
		return &cached, nil
	}

	cfg, err := s.tariffs.ActiveTariff(ctx)
	if err != nil {
		return nil, unavailable("tariff config unavailable", err)
	}
	if cfg == nil {
		return nil, nil
	}

	snapshot := *cfg
	s.tariffCache.save(ctx, key, snapshot)
	return &snapshot, nil
}

func (s *ExpressPricingService) allActiveSectors(ctx context.Context) ([]models.DeliverySector, error) {
	key := redis.GenerateKey(redis.KeyPrefixSectors, "all")

	var cached []models.DeliverySector
	if s.referenceCache.tryGet(ctx, key, &cached) {
		return cached, nil
	}

	sectors, err := s.sectors.ActiveSectors(ctx, "")
	if err != nil {
		return nil, unavailable("delivery sectors unavailable", err)
	}

	s.referenceCache.save(ctx, key, sectors)
	return sectors, nil
}

func (s *ExpressPricingService) activeSector(ctx context.Context, id uuid.UUID) (*models.DeliverySector, error) {
	sector, err := s.sectors.Sector(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, err
		}
		return nil, unavailable("delivery sectors unavailable", err)
	}
	if !sector.IsActive {
		return nil, apperror.NotFound("delivery sector is not active", nil)
	}
	return sector, nil
}

// unavailable оставляет типизированные ошибки хранилища как есть и оборачивает остальные.
func unavailable(msg string, err error) error {
	if apperror.Is(err, apperror.KindUnavailable) || apperror.Is(err, apperror.KindNotFound) {
		return err
	}
	return apperror.Unavailable(msg, err)
}

// DepotOrigin возвращает Origin автовокзала: документы из внутренних городов приходят туда.
func (s *ExpressPricingService) DepotOrigin() Origin {
	return OriginPoint(s.depot)
}
