// Package store читает справочные данные доставки из PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/database"
	"document-delivery/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres реализует чтение тарифа, точек выдачи, районов, зон и цен городов.
type Postgres struct {
	db      *database.DB
	timeout time.Duration
}

// NewPostgres создаёт хранилище справочников.
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

// WithTimeout ограничивает время каждого запроса к справочникам. Ноль отключает ограничение.
func (s *Postgres) WithTimeout(d time.Duration) *Postgres {
	s.timeout = d
	return s
}

func (s *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ActiveTariff возвращает активный тариф экспресс-доставки или nil, если его нет.
func (s *Postgres) ActiveTariff(ctx context.Context) (*models.TariffConfig, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT base_fee, per_km_rate, road_factor, rounding, min_price, max_price
		FROM delivery_tariff_config
		WHERE is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`

	cfg := &models.TariffConfig{}
	err := s.db.QueryRowContext(ctx, query).Scan(
		&cfg.BaseFee, &cfg.PerKmRate, &cfg.RoadFactor, &cfg.Rounding, &cfg.MinPrice, &cfg.MaxPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Unavailable("tariff config unavailable", fmt.Errorf("failed to load tariff config: %w", err))
	}
	return cfg, nil
}

// PickupPoint ищет координату мэрии коммуны без учёта регистра.
func (s *Postgres) PickupPoint(ctx context.Context, commune string) (*models.CommunePickupPoint, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT commune, latitude, longitude
		FROM commune_pickup_points
		WHERE LOWER(commune) = LOWER($1)
		LIMIT 1
	`

	p := &models.CommunePickupPoint{}
	err := s.db.QueryRowContext(ctx, query, commune).Scan(&p.Commune, &p.Location.Latitude, &p.Location.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("pickup point not found", err)
		}
		return nil, apperror.Unavailable("pickup points unavailable", fmt.Errorf("failed to get pickup point: %w", err))
	}
	return p, nil
}

const sectorColumns = `id, zone_id, commune, name, slug, latitude, longitude, is_active, display_order`

// ActiveSectors возвращает активные районы (все или одной коммуны),
// отсортированные по коммуне и display_order.
func (s *Postgres) ActiveSectors(ctx context.Context, commune string) ([]models.DeliverySector, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if commune == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+sectorColumns+`
			FROM delivery_sectors
			WHERE is_active = true
			ORDER BY commune, display_order
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+sectorColumns+`
			FROM delivery_sectors
			WHERE is_active = true AND LOWER(commune) = LOWER($1)
			ORDER BY commune, display_order
		`, commune)
	}
	if err != nil {
		return nil, apperror.Unavailable("delivery sectors unavailable", fmt.Errorf("failed to list sectors: %w", err))
	}
	defer rows.Close()

	var sectors []models.DeliverySector
	for rows.Next() {
		sector, err := scanSector(rows)
		if err != nil {
			return nil, apperror.Unavailable("delivery sectors unavailable", err)
		}
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("delivery sectors unavailable", fmt.Errorf("failed to iterate sectors: %w", err))
	}

	return sectors, nil
}

// Sector возвращает район по идентификатору.
func (s *Postgres) Sector(ctx context.Context, id uuid.UUID) (*models.DeliverySector, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+sectorColumns+` FROM delivery_sectors WHERE id = $1`, id)
	sector, err := scanSector(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("delivery sector not found", err)
		}
		return nil, apperror.Unavailable("delivery sectors unavailable", err)
	}
	return &sector, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSector(row rowScanner) (models.DeliverySector, error) {
	var sector models.DeliverySector
	if err := row.Scan(
		&sector.ID, &sector.ZoneID, &sector.Commune, &sector.Name, &sector.Slug,
		&sector.Location.Latitude, &sector.Location.Longitude, &sector.IsActive, &sector.DisplayOrder,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sector, err
		}
		return sector, fmt.Errorf("failed to scan sector: %w", err)
	}
	return sector, nil
}

// ActiveZones возвращает активные зоны доставки.
func (s *Postgres) ActiveZones(ctx context.Context) ([]models.DeliveryZone, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, code, communes, is_active
		FROM delivery_zones
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperror.Unavailable("delivery zones unavailable", fmt.Errorf("failed to list zones: %w", err))
	}
	defer rows.Close()

	var zones []models.DeliveryZone
	for rows.Next() {
		var z models.DeliveryZone
		if err := rows.Scan(&z.ID, &z.Name, &z.Code, pq.Array(&z.Communes), &z.IsActive); err != nil {
			return nil, apperror.Unavailable("delivery zones unavailable", fmt.Errorf("failed to scan zone: %w", err))
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("delivery zones unavailable", fmt.Errorf("failed to iterate zones: %w", err))
	}

	return zones, nil
}

// CityPricing возвращает активную таблицу цен города или nil, если её нет.
func (s *Postgres) CityPricing(ctx context.Context, city string) (*models.CityPricing, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT city, prices
		FROM city_pricing
		WHERE LOWER(city) = LOWER($1) AND is_active = true
		LIMIT 1
	`

	var (
		name string
		raw  []byte
	)
	if err := s.db.QueryRowContext(ctx, query, city).Scan(&name, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Unavailable("city pricing unavailable", fmt.Errorf("failed to get city pricing: %w", err))
	}

	pricing := &models.CityPricing{City: name, IsActive: true}
	if err := json.Unmarshal(raw, &pricing.Prices); err != nil {
		return nil, apperror.Unavailable("city pricing unavailable", fmt.Errorf("failed to decode city pricing: %w", err))
	}
	return pricing, nil
}
