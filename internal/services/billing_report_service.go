package services

import (
	"context"
	"fmt"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/database"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"
)

const defaultReportCacheTTL = 10 * time.Minute

// BillingReportService суммирует зафиксированные счета по категориям сборов.
// Счета читаются только из сохранённых записей и никогда не пересчитываются.
type BillingReportService struct {
	db       *database.DB
	redis    *redis.Client
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewBillingReportService создает сервис отчётов.
func NewBillingReportService(db *database.DB, redisClient *redis.Client, log *logger.Logger, cfg *config.ReportsConfig) *BillingReportService {
	cacheTTL := defaultReportCacheTTL
	if cfg != nil && cfg.CacheTTLMinutes > 0 {
		cacheTTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
	}

	return &BillingReportService{
		db:       db,
		redis:    redisClient,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

// GetBillingReport возвращает суммы по категориям и сценариям за период [From, To].
// Отменённые заявки не учитываются.
func (s *BillingReportService) GetBillingReport(ctx context.Context, filter *models.BillingReportFilter) (*models.BillingReport, error) {
	cacheKey := s.buildCacheKey(filter)

	var cached models.BillingReport
	if s.tryGetFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	report := &models.BillingReport{
		From:        filter.From,
		To:          filter.To,
		GeneratedAt: time.Now(),
	}

	if err := s.fetchTotals(ctx, filter, report); err != nil {
		return nil, err
	}

	scenarios, err := s.fetchScenarioTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	report.Scenarios = scenarios

	s.saveToCache(ctx, cacheKey, report)
	return report, nil
}

func (s *BillingReportService) fetchTotals(ctx context.Context, filter *models.BillingReportFilter, report *models.BillingReport) error {
	query := `
		SELECT COUNT(*) AS orders_count,
		       COALESCE(SUM((billing_details->'payment_breakdown'->>'documents_subtotal')::bigint), 0) AS documents_subtotal,
		       COALESCE(SUM((billing_details->'payment_breakdown'->>'prestation_fee')::bigint), 0) AS prestation_fees,
		       COALESCE(SUM((billing_details->'payment_breakdown'->>'shipping_fee')::bigint), 0) AS shipping_fees,
		       COALESCE(SUM((billing_details->'payment_breakdown'->>'express_fee')::bigint), 0) AS express_fees,
		       COALESCE(SUM((billing_details->>'total_amount')::bigint), 0) AS total_amount
		FROM document_orders
		WHERE status <> 'cancelled' AND created_at BETWEEN $1 AND $2
	`

	row := s.db.QueryRowContext(ctx, query, filter.From, filter.To)
	if err := row.Scan(
		&report.OrdersCount, &report.DocumentsSubtotal, &report.PrestationFees,
		&report.ShippingFees, &report.ExpressFees, &report.TotalAmount,
	); err != nil {
		return fmt.Errorf("failed to load billing totals: %w", err)
	}
	return nil
}

func (s *BillingReportService) fetchScenarioTotals(ctx context.Context, filter *models.BillingReportFilter) ([]models.ScenarioTotal, error) {
	query := `
		SELECT scenario,
		       COUNT(*) AS orders_count,
		       COALESCE(SUM((billing_details->>'total_amount')::bigint), 0) AS total_amount
		FROM document_orders
		WHERE status <> 'cancelled' AND created_at BETWEEN $1 AND $2
		GROUP BY scenario
		ORDER BY total_amount DESC, scenario ASC
	`

	rows, err := s.db.QueryContext(ctx, query, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario totals: %w", err)
	}
	defer rows.Close()

	result := make([]models.ScenarioTotal, 0)
	for rows.Next() {
		var item models.ScenarioTotal
		if err := rows.Scan(&item.Scenario, &item.OrdersCount, &item.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan scenario total: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenario totals: %w", err)
	}

	return result, nil
}

func (s *BillingReportService) buildCacheKey(filter *models.BillingReportFilter) string {
	return redis.GenerateKey(redis.KeyPrefixReport,
		filter.From.Format("2006-01-02"),
		filter.To.Format("2006-01-02"),
	)
}

func (s *BillingReportService) tryGetFromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}

	if err := s.redis.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (s *BillingReportService) saveToCache(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache billing report")
	}
}
