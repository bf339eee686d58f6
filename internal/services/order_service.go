package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"document-delivery/internal/apperror"
	"document-delivery/internal/commune"
	"document-delivery/internal/database"
	"document-delivery/internal/logger"
	"document-delivery/internal/metrics"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// DocumentOrderService создаёт заявки на документы и фиксирует их счёт.
// Счёт считается один раз при создании и дальше читается только из сохранённой записи.
type DocumentOrderService struct {
	db        *database.DB
	log       *logger.Logger
	documents *DocumentPricingService
	express   *ExpressPricingService
	events    EventPublisher
	cache     Cache
	cacheTTL  time.Duration
}

// NewDocumentOrderService создает сервис заявок. events и cache могут быть nil.
func NewDocumentOrderService(
	db *database.DB,
	log *logger.Logger,
	documents *DocumentPricingService,
	express *ExpressPricingService,
	events EventPublisher,
	cache Cache,
	cacheTTL time.Duration,
) *DocumentOrderService {
	return &DocumentOrderService{
		db:        db,
		log:       log,
		documents: documents,
		express:   express,
		events:    events,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// CreateOrder считает строку документа, экспресс-цену и счёт, затем сохраняет заявку.
func (s *DocumentOrderService) CreateOrder(ctx context.Context, req *models.CreateDocumentOrderRequest) (*models.DocumentOrder, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, apperror.Validation("city is required", nil)
	}
	if req.ServiceType != "" && !validServiceType(req.ServiceType) {
		return nil, apperror.Validation("unknown service type", nil)
	}

	form := make(models.DeliveryForm, len(req.DeliveryForm))
	for k, v := range req.DeliveryForm {
		form[k] = v
	}
	if form.RecoveryMode().Ships() && strings.TrimSpace(form.DestinationCity()) == "" {
		return nil, apperror.Validation(models.FormKeyDestinationCity+" is required", nil)
	}

	line, err := s.documents.BuildOrderLine(ctx, req.DocumentType, city, req.ServiceType, req.Copies)
	if err != nil {
		return nil, err
	}

	override, err := s.expressOverride(ctx, city, form)
	if err != nil {
		return nil, err
	}

	captured := CaptureBilling(BillingInput{
		Document:             line,
		OriginCity:           city,
		Form:                 form,
		ExpressPriceOverride: override,
	})
	if err := captured.Billing.Verify(); err != nil {
		return nil, fmt.Errorf("captured billing rejected: %w", err)
	}
	if captured.Unmatched {
		metrics.BillingUnmatchedTotal.Inc()
		s.log.WithFields(map[string]interface{}{
			"city":          city,
			"destination":   form.DestinationCity(),
			"recovery_mode": captured.Recovery.Raw,
			"scenario":      captured.Scenario,
		}).Warn("Unrecognized recovery mode, delivery fees captured as zero")
	}

	now := time.Now().UTC()
	order := &models.DocumentOrder{
		ID:           uuid.New(),
		DocumentType: req.DocumentType,
		City:         city,
		ServiceType:  req.ServiceType,
		Copies:       line.Copies,
		DeliveryForm: form,
		Scenario:     string(captured.Scenario),
		Billing:      captured.Billing,
		Status:       models.OrderStatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.insertOrder(ctx, order); err != nil {
		return nil, err
	}

	metrics.BillingCapturedTotal.WithLabelValues(order.Scenario).Inc()
	metrics.BillingAmount.Observe(float64(order.Billing.TotalAmount))

	s.log.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"scenario":     order.Scenario,
		"total_amount": order.Billing.TotalAmount,
	}).Info("Document order created with captured billing")

	s.publish(order)
	s.saveToCache(ctx, order)
	return order, nil
}

// GetOrder возвращает заявку с сохранённым счётом без пересчёта.
func (s *DocumentOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.DocumentOrder, error) {
	key := redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())
	if s.cache != nil {
		var cached models.DocumentOrder
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	query := `
		SELECT id, document_type, city, service_type, copies, delivery_form, scenario,
		       billing_details, status, created_at, updated_at
		FROM document_orders
		WHERE id = $1
	`

	var (
		order   models.DocumentOrder
		rawForm []byte
		rawBill []byte
	)
	err := s.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.DocumentType, &order.City, &order.ServiceType, &order.Copies,
		&rawForm, &order.Scenario, &rawBill, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if len(rawForm) > 0 {
		if err := json.Unmarshal(rawForm, &order.DeliveryForm); err != nil {
			return nil, fmt.Errorf("failed to decode delivery form: %w", err)
		}
	}
	if err := json.Unmarshal(rawBill, &order.Billing); err != nil {
		return nil, fmt.Errorf("failed to decode billing details: %w", err)
	}

	s.saveToCache(ctx, &order)
	return &order, nil
}

// UpdateOrderStatus меняет только статус заявки; зафиксированный счёт не затрагивается.
func (s *DocumentOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	if !status.Valid() {
		return apperror.Validation("invalid order status", nil)
	}

	query := `
		UPDATE document_orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("order not found", nil)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, redis.GenerateKey(redis.KeyPrefixOrder, orderID.String())); err != nil {
			s.log.WithError(err).WithField("order_id", orderID).Warn("Failed to invalidate cached order")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	}).Info("Order status updated")

	return nil
}

// expressOverride считает цену по расстоянию для экспресс-строки счёта.
// nil означает "использовать сбор по умолчанию".
// Без активного тарифа курьерский участок до вокзала берёт сбор по умолчанию,
// а доставка до района возвращает conflict: её цена задаётся только тарифом.
func (s *DocumentOrderService) expressOverride(ctx context.Context, city string, form models.DeliveryForm) (*int64, error) {
	if s.express == nil {
		return nil, nil
	}

	recovery := form.RecoveryMode()
	destination := form.DestinationCity()
	originIsCapital := commune.IsCapital(city)
	destinationIsCapital := commune.IsCapital(destination)

	switch {
	case originIsCapital && !destinationIsCapital && recovery.Ships():
		quote, err := s.express.PickupToDepotPrice(ctx, city)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			s.log.WithField("city", city).Warn("No active tariff for courier leg, using default fee")
			return nil, nil
		}
		return &quote.Price, nil

	case recovery.Kind == models.RecoveryExpressDelivery:
		raw := form.Value(models.FormKeyDeliverySector)
		if raw == "" {
			return nil, nil
		}
		sectorID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperror.Validation("invalid delivery sector id", err)
		}

		origin := OriginCommune(destination)
		switch {
		case originIsCapital:
			origin = OriginCommune(city)
		case destinationIsCapital:
			origin = s.express.DepotOrigin()
		}

		quote, err := s.express.ExpressPriceToSector(ctx, origin, sectorID)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			return nil, apperror.Conflict("express pricing unavailable", nil)
		}
		return &quote.Price, nil
	}

	return nil, nil
}

func (s *DocumentOrderService) insertOrder(ctx context.Context, order *models.DocumentOrder) error {
	formJSON, err := json.Marshal(order.DeliveryForm)
	if err != nil {
		return fmt.Errorf("failed to encode delivery form: %w", err)
	}
	billingJSON, err := json.Marshal(order.Billing)
	if err != nil {
		return fmt.Errorf("failed to encode billing details: %w", err)
	}

	query := `
		INSERT INTO document_orders (id, document_type, city, service_type, copies, delivery_form, scenario, billing_details, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		order.ID, order.DocumentType, order.City, order.ServiceType, order.Copies,
		formJSON, order.Scenario, billingJSON, order.Billing.TotalAmount,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperror.Conflict("order already exists", err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *DocumentOrderService) publish(order *models.DocumentOrder) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderCreated(order); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("Failed to publish order created event")
	}
	if err := s.events.PublishBillingCaptured(order); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("Failed to publish billing captured event")
	}
}

func (s *DocumentOrderService) saveToCache(ctx context.Context, order *models.DocumentOrder) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	key := redis.GenerateKey(redis.KeyPrefixOrder, order.ID.String())
	if err := s.cache.Set(ctx, key, order, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache order")
	}
}

func validServiceType(t models.ServiceType) bool {
	for _, known := range models.ServiceFallbackOrder {
		if t == known {
			return true
		}
	}
	return false
}
