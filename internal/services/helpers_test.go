package services

import (
	"context"
	"strings"
	"testing"

	"document-delivery/internal/apperror"
	"document-delivery/internal/config"
	"document-delivery/internal/database"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "debug", Format: "json"})
}

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return &database.DB{DB: db}, mock
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redis.Connect(&config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

type fakeTariffStore struct {
	cfg   *models.TariffConfig
	err   error
	calls int
}

func (f *fakeTariffStore) ActiveTariff(ctx context.Context) (*models.TariffConfig, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return nil, nil
	}
	cfg := *f.cfg
	return &cfg, nil
}

type fakePickupStore struct {
	points map[string]models.GeoPoint
	err    error
	calls  int
}

func (f *fakePickupStore) PickupPoint(ctx context.Context, commune string) (*models.CommunePickupPoint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for name, p := range f.points {
		if strings.EqualFold(name, commune) {
			return &models.CommunePickupPoint{Commune: name, Location: p}, nil
		}
	}
	return nil, apperror.NotFound("pickup point not found", nil)
}

type fakeSectorStore struct {
	sectors []models.DeliverySector
	err     error
	calls   int
}

func (f *fakeSectorStore) ActiveSectors(ctx context.Context, commune string) ([]models.DeliverySector, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.DeliverySector
	for _, s := range f.sectors {
		if !s.IsActive {
			continue
		}
		if commune != "" && !strings.EqualFold(s.Commune, commune) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSectorStore) Sector(ctx context.Context, id uuid.UUID) (*models.DeliverySector, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.sectors {
		if s.ID == id {
			sector := s
			return &sector, nil
		}
	}
	return nil, apperror.NotFound("delivery sector not found", nil)
}

type fakeZoneStore struct {
	zones []models.DeliveryZone
	err   error
}

func (f *fakeZoneStore) ActiveZones(ctx context.Context) ([]models.DeliveryZone, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.zones, nil
}

type fakeCityPricingStore struct {
	pricing map[string]*models.CityPricing
	err     error
	calls   int
}

func (f *fakeCityPricingStore) CityPricing(ctx context.Context, city string) (*models.CityPricing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for name, p := range f.pricing {
		if strings.EqualFold(name, city) {
			return p, nil
		}
	}
	return nil, nil
}

func newSector(commune, name string, order int, lat, lon float64) models.DeliverySector {
	return models.DeliverySector{
		ID:           uuid.New(),
		ZoneID:       uuid.New(),
		Commune:      commune,
		Name:         name,
		Slug:         strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Location:     models.GeoPoint{Latitude: lat, Longitude: lon},
		IsActive:     true,
		DisplayOrder: order,
	}
}
