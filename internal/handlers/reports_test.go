package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/models"
)

type stubBillingReporter struct {
	report *models.BillingReport
	err    error
	filter *models.BillingReportFilter
}

func (s *stubBillingReporter) GetBillingReport(ctx context.Context, filter *models.BillingReportFilter) (*models.BillingReport, error) {
	s.filter = filter
	return s.report, s.err
}

func testReport() *models.BillingReport {
	return &models.BillingReport{
		From:              time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		To:                time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC),
		OrdersCount:       2,
		DocumentsSubtotal: 1500,
		PrestationFees:    3000,
		ShippingFees:      2000,
		ExpressFees:       2000,
		TotalAmount:       8500,
		Scenarios:         []models.ScenarioTotal{{Scenario: "capital_to_region", OrdersCount: 2, TotalAmount: 8500}},
	}
}

func TestParseReportFilter(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cfg := &config.ReportsConfig{MaxRangeDays: 31}

	req := httptest.NewRequest(http.MethodGet, "/api/reports/billing?from=2026-10-01&to=2026-10-10", nil)
	filter, format, err := parseReportFilter(req, cfg, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != "" || !filter.From.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) || filter.To.Day() != 10 || filter.To.Hour() != 23 {
		t.Fatalf("unexpected filter %+v format=%q", filter, format)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/reports/billing", nil)
	filter, _, err = parseReportFilter(req, cfg, now)
	if err != nil {
		t.Fatalf("unexpected error for defaults: %v", err)
	}
	if filter.To.Day() != 16 || !filter.From.Equal(time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected default range %s..%s", filter.From, filter.To)
	}
}

func TestParseReportFilter_Errors(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cfg := &config.ReportsConfig{MaxRangeDays: 31}

	for _, query := range []string{
		"from=2026/10/01",
		"to=yesterday",
		"from=2026-10-10&to=2026-10-01",
		"from=2026-01-01&to=2026-10-01",
		"format=xml",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/reports/billing?"+query, nil)
		if _, _, err := parseReportFilter(req, cfg, now); err == nil {
			t.Fatalf("expected error for %s", query)
		}
	}
}

func TestReportHandler_GetBillingReport(t *testing.T) {
	svc := &stubBillingReporter{report: testReport()}
	h := NewReportHandler(svc, newTestLogger(), &config.ReportsConfig{MaxRangeDays: 366})

	rr := httptest.NewRecorder()
	h.GetBillingReport(rr, httptest.NewRequest(http.MethodGet, "/api/reports/billing?from=2026-09-01&to=2026-09-30", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got models.BillingReport
	decodeBody(t, rr, &got)
	if got.TotalAmount != 8500 || len(got.Scenarios) != 1 {
		t.Fatalf("unexpected report %+v", got)
	}
	if svc.filter == nil || svc.filter.From.Month() != time.September {
		t.Fatalf("filter not passed through: %+v", svc.filter)
	}
}

func TestReportHandler_CSV(t *testing.T) {
	h := NewReportHandler(&stubBillingReporter{report: testReport()}, newTestLogger(), nil)

	rr := httptest.NewRecorder()
	h.GetBillingReport(rr, httptest.NewRequest(http.MethodGet, "/api/reports/billing?from=2026-09-01&to=2026-09-30&format=csv", nil))

	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("expected csv response, got %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	if !strings.Contains(body, "summary,2026-09-01..2026-09-30,2,1500,3000,2000,2000,8500") {
		t.Fatalf("missing summary row: %s", body)
	}
	if !strings.Contains(body, "scenario,capital_to_region,2,8500") {
		t.Fatalf("missing scenario row: %s", body)
	}
}

func TestReportHandler_Errors(t *testing.T) {
	h := NewReportHandler(&stubBillingReporter{err: context.DeadlineExceeded}, newTestLogger(), nil)

	rr := httptest.NewRecorder()
	h.GetBillingReport(rr, httptest.NewRequest(http.MethodGet, "/api/reports/billing", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetBillingReport(rr, httptest.NewRequest(http.MethodGet, "/api/reports/billing?format=pdf", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetBillingReport(rr, httptest.NewRequest(http.MethodPost, "/api/reports/billing", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
