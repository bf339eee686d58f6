package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"document-delivery/internal/logger"
	"document-delivery/internal/models"
)

// OrderHandler представляет обработчик заявок на документы
type OrderHandler struct {
	orderService OrderService
	log          *logger.Logger
}

// NewOrderHandler создает новый обработчик заявок
func NewOrderHandler(orderService OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder создает заявку и фиксирует её счёт
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateDocumentOrderRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := validateCreateOrderRequest(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create order")
		return
	}

	h.log.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"scenario":     order.Scenario,
		"total_amount": order.Billing.TotalAmount,
	}).Info("Order created successfully")

	writeJSONResponse(w, http.StatusCreated, order)
}

// GetOrder возвращает заявку с сохранённым счётом
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}

	writeJSONResponse(w, http.StatusOK, order)
}

// UpdateOrderStatus обновляет статус заявки. Счёт при этом не меняется.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.orderService.UpdateOrderStatus(r.Context(), orderID, req.Status); err != nil {
		writeServiceError(w, h.log, err, "Failed to update order status")
		return
	}

	h.log.WithField("order_id", orderID).WithField("new_status", req.Status).Info("Order status updated")
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Order status updated successfully"})
}

// validateCreateOrderRequest проверяет обязательные поля до обращения к сервису
func validateCreateOrderRequest(req *models.CreateDocumentOrderRequest) error {
	if strings.TrimSpace(string(req.DocumentType)) == "" {
		return fmt.Errorf("document_type is required")
	}
	if strings.TrimSpace(req.City) == "" {
		return fmt.Errorf("city is required")
	}
	if req.Copies < 1 {
		return fmt.Errorf("copies must be at least 1")
	}
	return nil
}
