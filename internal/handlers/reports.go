package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"
)

const (
	defaultReportRangeDays = 366
	reportTimeout          = 5 * time.Second
)

// ReportHandler отдаёт суммы по зафиксированным счетам.
type ReportHandler struct {
	service BillingReporter
	log     *logger.Logger
	cfg     *config.ReportsConfig
}

// NewReportHandler создает обработчик отчётов.
func NewReportHandler(service BillingReporter, log *logger.Logger, cfg *config.ReportsConfig) *ReportHandler {
	return &ReportHandler{
		service: service,
		log:     log,
		cfg:     cfg,
	}
}

// GetBillingReport возвращает суммы по категориям сборов с возможностью экспорта в CSV.
func (h *ReportHandler) GetBillingReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter, format, err := parseReportFilter(r, h.cfg, time.Now().UTC())
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	report, err := h.service.GetBillingReport(ctx, filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load billing report")
		return
	}

	if format == "csv" {
		if err := writeBillingCSV(w, report); err != nil {
			h.log.WithError(err).Warn("Failed to stream billing CSV")
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}

func parseReportFilter(r *http.Request, cfg *config.ReportsConfig, now time.Time) (*models.BillingReportFilter, string, error) {
	query := r.URL.Query()

	to := endOfDay(now)
	if toParam := query.Get("to"); toParam != "" {
		parsed, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			return nil, "", fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
		}
		to = endOfDay(parsed)
	}

	maxRangeDays := defaultReportRangeDays
	if cfg != nil && cfg.MaxRangeDays > 0 {
		maxRangeDays = cfg.MaxRangeDays
	}

	from := startOfDay(to.AddDate(0, 0, -maxRangeDays+1))
	if fromParam := query.Get("from"); fromParam != "" {
		parsed, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			return nil, "", fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
		}
		from = startOfDay(parsed)
	}

	if from.After(to) {
		return nil, "", fmt.Errorf("'from' date must be before 'to' date")
	}
	if from.Before(startOfDay(to.AddDate(0, 0, -maxRangeDays+1))) {
		return nil, "", fmt.Errorf("date range too wide, max %d days", maxRangeDays)
	}

	format := strings.ToLower(query.Get("format"))
	if format != "" && format != "json" && format != "csv" {
		return nil, "", fmt.Errorf("format must be json or csv")
	}

	return &models.BillingReportFilter{From: from, To: to}, format, nil
}

func writeBillingCSV(w http.ResponseWriter, report *models.BillingReport) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=billing.csv")
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	rangeLabel := fmt.Sprintf("%s..%s", report.From.Format("2006-01-02"), report.To.Format("2006-01-02"))
	_ = writer.Write([]string{"section", "period", "orders_count", "documents", "prestation", "shipping", "express", "total"})
	_ = writer.Write([]string{
		"summary",
		rangeLabel,
		strconv.Itoa(report.OrdersCount),
		strconv.FormatInt(report.DocumentsSubtotal, 10),
		strconv.FormatInt(report.PrestationFees, 10),
		strconv.FormatInt(report.ShippingFees, 10),
		strconv.FormatInt(report.ExpressFees, 10),
		strconv.FormatInt(report.TotalAmount, 10),
	})

	_ = writer.Write([]string{})
	_ = writer.Write([]string{"section", "scenario", "orders_count", "total"})
	for _, s := range report.Scenarios {
		_ = writer.Write([]string{"scenario", s.Scenario, strconv.Itoa(s.OrdersCount), strconv.FormatInt(s.TotalAmount, 10)})
	}

	writer.Flush()
	return writer.Error()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Millisecond*999), time.UTC)
}
