package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/models"
)

func newTestDocumentPricing(store CityPricingStore, cache Cache) *DocumentPricingService {
	return NewDocumentPricingService(store, cache, newTestLogger(), time.Minute)
}

func bouakePricing() *models.CityPricing {
	return &models.CityPricing{
		City:     "Bouaké",
		IsActive: true,
		Prices: map[models.ServiceType]map[models.DocumentType]int64{
			models.ServiceMairie: {
				models.DocumentBirthExtract:  700,
				models.DocumentResidenceCert: 0,
			},
			models.ServiceSousPrefecture: {
				models.DocumentResidenceCert: 1800,
			},
			models.ServiceJustice: {
				models.DocumentCriminalRecord: 2500,
			},
		},
	}
}

func TestUnitPrice_LookupOrder(t *testing.T) {
	store := &fakeCityPricingStore{pricing: map[string]*models.CityPricing{"Bouaké": bouakePricing()}}
	svc := newTestDocumentPricing(store, nil)
	ctx := context.Background()

	cases := []struct {
		name    string
		doc     models.DocumentType
		city    string
		service models.ServiceType
		want    int64
	}{
		{"requested service", models.DocumentCriminalRecord, "Bouaké", models.ServiceJustice, 2500},
		{"fallback to mairie", models.DocumentBirthExtract, "Bouaké", models.ServiceJustice, 700},
		{"zero price skipped", models.DocumentResidenceCert, "Bouaké", models.ServiceMairie, 1800},
		{"no service given", models.DocumentCriminalRecord, "bouaké", "", 2500},
		{"document default", models.DocumentNationalityCert, "Bouaké", models.ServiceMairie, 2000},
		{"city without table", models.DocumentBirthFullCopy, "Korhogo", models.ServiceMairie, 1000},
		{"blank city", models.DocumentLegalization, "", "", 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.UnitPrice(ctx, tc.doc, tc.city, tc.service)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestUnitPrice_UnknownDocument(t *testing.T) {
	svc := newTestDocumentPricing(&fakeCityPricingStore{}, nil)

	_, err := svc.UnitPrice(context.Background(), models.DocumentType("passeport"), "Abidjan", "")
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnitPrice_StoreFailureIsUnavailable(t *testing.T) {
	svc := newTestDocumentPricing(&fakeCityPricingStore{err: errors.New("db down")}, nil)

	_, err := svc.UnitPrice(context.Background(), models.DocumentBirthExtract, "Daloa", "")
	if !apperror.Is(err, apperror.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(500, 3); got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if got := LineTotal(1000, 1); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
}

func TestBuildOrderLine(t *testing.T) {
	store := &fakeCityPricingStore{pricing: map[string]*models.CityPricing{"Bouaké": bouakePricing()}}
	svc := newTestDocumentPricing(store, nil)

	line, err := svc.BuildOrderLine(context.Background(), models.DocumentBirthExtract, "Bouaké", models.ServiceMairie, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.UnitPrice != 700 || line.TotalPrice != 2100 || line.Copies != 3 {
		t.Fatalf("unexpected line: %+v", line)
	}
	if line.DocumentName == "" {
		t.Fatalf("expected document name filled")
	}

	if _, err := svc.BuildOrderLine(context.Background(), models.DocumentBirthExtract, "Bouaké", "", 0); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for zero copies, got %v", err)
	}
}

func TestUnitPrice_CachesAbsentTable(t *testing.T) {
	rdb, _ := newTestRedis(t)
	store := &fakeCityPricingStore{}
	svc := newTestDocumentPricing(store, rdb)

	for i := 0; i < 3; i++ {
		price, err := svc.UnitPrice(context.Background(), models.DocumentBirthExtract, "Korhogo", "")
		if err != nil || price != 500 {
			t.Fatalf("expected default price, got %d %v", price, err)
		}
	}
	if store.calls != 1 {
		t.Fatalf("expected absent table cached, got %d store calls", store.calls)
	}
}
