package services

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"document-delivery/internal/models"
)

func birthExtractLine(copies int) models.DocumentOrderLine {
	return models.DocumentOrderLine{
		DocumentType: models.DocumentBirthExtract,
		DocumentName: "Extrait d'acte de naissance",
		Copies:       copies,
		UnitPrice:    500,
		TotalPrice:   500 * int64(copies),
	}
}

func int64Ptr(v int64) *int64 { return &v }

func assertTotalInvariant(t *testing.T, b models.BillingDetails) {
	t.Helper()
	if err := b.Verify(); err != nil {
		t.Fatalf("billing invariant broken: %v (%+v)", err, b)
	}
}

func TestClassifyScenario(t *testing.T) {
	cases := []struct {
		origin, destination string
		want                Scenario
	}{
		{"Abidjan", "Abidjan", ScenarioCapitalToCapital},
		{"Cocody", "Yopougon", ScenarioCapitalToCapital},
		{"Port-Bouët", "plateau", ScenarioCapitalToCapital},
		{"Bouaké", "bouake", ScenarioSameCity},
		{"Abidjan", "Bouaké", ScenarioCapitalToRegion},
		{"Abidjan", "", ScenarioCapitalToRegion},
		{"Daloa", "Abidjan", ScenarioRegionToCapital},
		{"Daloa", "Man", ScenarioRegionToRegion},
		{"Daloa", "", ScenarioRegionToRegion},
	}

	for _, tc := range cases {
		if got := ClassifyScenario(tc.origin, tc.destination); got != tc.want {
			t.Fatalf("%s → %s: expected %s, got %s", tc.origin, tc.destination, tc.want, got)
		}
	}
}

func TestCaptureBilling_CapitalDirectPickup(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(1),
		OriginCity: "Abidjan",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "moi_meme_service_mairie",
			models.FormKeyDestinationCity: "Abidjan",
		},
	})
	b := res.Billing

	if b.Prestation.Amount != 1000 || b.Prestation.Description != "Direct pickup service fee" {
		t.Fatalf("unexpected prestation: %+v", b.Prestation)
	}
	if b.Shipping != nil || b.ExpressDelivery != nil {
		t.Fatalf("expected no shipping or express line, got %+v / %+v", b.Shipping, b.ExpressDelivery)
	}
	if b.TotalAmount != 1500 {
		t.Fatalf("expected total 1500, got %d", b.TotalAmount)
	}
	if res.Scenario != ScenarioCapitalToCapital || res.Unmatched {
		t.Fatalf("unexpected result flags: %+v", res)
	}
	assertTotalInvariant(t, b)
}

func TestCaptureBilling_CapitalToRegionDepotUTB(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(3),
		OriginCity: "Abidjan",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "moi_meme_gare",
			models.FormKeyExpeditionMode:  "utb",
			models.FormKeyDestinationCity: "Bouaké",
		},
	})
	b := res.Billing

	if b.Prestation.Amount != 2000 {
		t.Fatalf("expected prestation 2000, got %d", b.Prestation.Amount)
	}
	if b.Shipping == nil || b.Shipping.Amount != 3000 {
		t.Fatalf("expected shipping 3000, got %+v", b.Shipping)
	}
	if !strings.Contains(b.Shipping.Description, "Abidjan") || !strings.Contains(b.Shipping.Description, "Bouaké") || !strings.Contains(b.Shipping.Description, "UTB") {
		t.Fatalf("unexpected shipping description: %q", b.Shipping.Description)
	}
	if b.ExpressDelivery == nil || b.ExpressDelivery.Amount != 2000 || b.ExpressDelivery.Description != "Courier pickup from office to depot" {
		t.Fatalf("expected courier leg 2000, got %+v", b.ExpressDelivery)
	}
	if b.TotalAmount != 1500+2000+3000+2000 {
		t.Fatalf("unexpected total %d", b.TotalAmount)
	}
	assertTotalInvariant(t, b)
}

func TestCaptureBilling_RegionToCapitalExpressOverride(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(1),
		OriginCity: "Daloa",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "livraison_express",
			models.FormKeyDestinationCity: "Abidjan",
		},
		ExpressPriceOverride: int64Ptr(1800),
	})
	b := res.Billing

	if b.ExpressDelivery == nil || b.ExpressDelivery.Amount != 1800 || b.ExpressDelivery.Description != "Express delivery" {
		t.Fatalf("expected express 1800, got %+v", b.ExpressDelivery)
	}
	if b.Prestation.Amount != 2000 {
		t.Fatalf("expected prestation 2000, got %d", b.Prestation.Amount)
	}
	if b.Shipping == nil || b.Shipping.Amount != 1000 {
		t.Fatalf("expected flat shipping 1000, got %+v", b.Shipping)
	}
	if !strings.Contains(b.Shipping.Description, "other carrier") {
		t.Fatalf("expected default carrier name, got %q", b.Shipping.Description)
	}
	if res.Scenario != ScenarioRegionToCapital {
		t.Fatalf("unexpected scenario %s", res.Scenario)
	}
	assertTotalInvariant(t, b)
}

func TestCaptureBilling_RegionToRegionTransit(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(2),
		OriginCity: "Daloa",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "moi_meme_gare",
			models.FormKeyExpeditionMode:  "expedition_abidjan",
			models.FormKeyDestinationCity: "Man",
		},
	})
	b := res.Billing

	if b.Shipping == nil || b.Shipping.Amount != 4000 {
		t.Fatalf("expected transit shipping 4000, got %+v", b.Shipping)
	}
	if !strings.Contains(b.Shipping.Description, "transit via Abidjan") {
		t.Fatalf("expected transit description, got %q", b.Shipping.Description)
	}
	if b.ExpressDelivery != nil {
		t.Fatalf("expected no express line, got %+v", b.ExpressDelivery)
	}
	assertTotalInvariant(t, b)
}

func TestCaptureBilling_DecisionTable(t *testing.T) {
	cases := []struct {
		name         string
		origin       string
		destination  string
		recovery     string
		expedition   string
		transport    string
		copies       int
		override     *int64
		wantShipping int64
		wantExpress  int64
		wantUnmatch  bool
	}{
		{"capital express default", "Cocody", "Yopougon", "livraison_express", "", "", 1, nil, 0, 2000, false},
		{"capital express override", "Cocody", "Marcory", "livraison_express", "", "", 1, int64Ptr(2500), 0, 2500, false},
		{"capital depot no express", "Cocody", "Plateau", "moi_meme_gare", "", "", 1, nil, 0, 0, false},
		{"same city region", "Bouaké", "bouake", "livraison_express", "utb", "", 2, nil, 0, 2000, false},
		{"capital to region express", "Plateau", "Korhogo", "livraison_express", "", "STC", 1, int64Ptr(1500), 1000, 1500, false},
		{"capital to region pickup", "Plateau", "Korhogo", "moi_meme_service_mairie", "", "", 1, nil, 0, 0, false},
		{"region to capital depot utb", "Daloa", "Cocody", "moi_meme_gare", "utb", "", 2, nil, 2000, 0, false},
		{"region to region express utb", "Daloa", "Man", "livraison_express", "utb", "", 3, nil, 3000, 2000, false},
		{"region to region pickup", "Daloa", "Man", "moi_meme_service_sous_prefecture", "expedition_abidjan", "", 1, nil, 0, 0, false},
		{"unknown recovery", "Abidjan", "Bouaké", "drone", "utb", "", 1, nil, 0, 0, true},
		{"empty recovery", "Daloa", "Man", "", "", "", 1, nil, 0, 0, true},
		{"non-positive override uses default", "Cocody", "Treichville", "livraison_express", "", "", 1, int64Ptr(0), 0, 2000, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := models.DeliveryForm{
				models.FormKeyRecoveryMode:    tc.recovery,
				models.FormKeyDestinationCity: tc.destination,
			}
			if tc.expedition != "" {
				form[models.FormKeyExpeditionMode] = tc.expedition
			}
			if tc.transport != "" {
				form[models.FormKeyTransportPref] = tc.transport
			}

			res := CaptureBilling(BillingInput{
				Document:             birthExtractLine(tc.copies),
				OriginCity:           tc.origin,
				Form:                 form,
				ExpressPriceOverride: tc.override,
			})
			b := res.Billing

			if b.PaymentBreakdown.ShippingFee != tc.wantShipping {
				t.Fatalf("expected shipping %d, got %d", tc.wantShipping, b.PaymentBreakdown.ShippingFee)
			}
			if b.PaymentBreakdown.ExpressFee != tc.wantExpress {
				t.Fatalf("expected express %d, got %d", tc.wantExpress, b.PaymentBreakdown.ExpressFee)
			}
			if (b.Shipping != nil) != (tc.wantShipping > 0) || (b.ExpressDelivery != nil) != (tc.wantExpress > 0) {
				t.Fatalf("fee lines must be emitted only for positive amounts: %+v", b)
			}
			if res.Unmatched != tc.wantUnmatch {
				t.Fatalf("expected unmatched=%v, got %v", tc.wantUnmatch, res.Unmatched)
			}
			assertTotalInvariant(t, b)
		})
	}
}

func TestCaptureBilling_CarrierAndDestinationDisplay(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(1),
		OriginCity: "daloa",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "moi_meme_gare",
			models.FormKeyTransportPref:   "AVS",
			models.FormKeyDestinationCity: "yopougon",
		},
	})

	want := "Shipping Daloa → Abidjan (AVS)"
	if res.Billing.Shipping == nil || res.Billing.Shipping.Description != want {
		t.Fatalf("expected %q, got %+v", want, res.Billing.Shipping)
	}
}

func TestCaptureBilling_Deterministic(t *testing.T) {
	in := BillingInput{
		Document:   birthExtractLine(2),
		OriginCity: "Abidjan",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "livraison_express",
			models.FormKeyExpeditionMode:  "utb",
			models.FormKeyDestinationCity: "San-Pédro",
		},
		ExpressPriceOverride: int64Ptr(3500),
	}

	first := CaptureBilling(in)
	second := CaptureBilling(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical captures, got %+v and %+v", first, second)
	}
}

func TestCaptureBilling_FrozenRecordSurvivesRoundTrip(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(1),
		OriginCity: "Daloa",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "livraison_express",
			models.FormKeyDestinationCity: "Abidjan",
		},
		ExpressPriceOverride: int64Ptr(1800),
	})

	raw, err := json.Marshal(res.Billing)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var stored models.BillingDetails
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(stored, res.Billing) {
		t.Fatalf("stored record differs: %+v vs %+v", stored, res.Billing)
	}
	if !strings.Contains(string(raw), `"payment_breakdown":{"documents_subtotal":500,"prestation_fee":2000,"shipping_fee":1000,"express_fee":1800}`) {
		t.Fatalf("unexpected wire format: %s", raw)
	}
}

func TestCaptureBilling_OmitsZeroLinesInJSON(t *testing.T) {
	res := CaptureBilling(BillingInput{
		Document:   birthExtractLine(1),
		OriginCity: "Abidjan",
		Form: models.DeliveryForm{
			models.FormKeyRecoveryMode:    "moi_meme_service_mairie",
			models.FormKeyDestinationCity: "Abidjan",
		},
	})

	raw, err := json.Marshal(res.Billing)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "shipping\":{") || strings.Contains(string(raw), "express_delivery") {
		t.Fatalf("expected zero lines omitted, got %s", raw)
	}
}
