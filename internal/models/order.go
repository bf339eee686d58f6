package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статус заявки на документ
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// DocumentOrder: заявка на документ с зафиксированным счётом.
type DocumentOrder struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	DocumentType DocumentType   `json:"document_type" db:"document_type"`
	City         string         `json:"city" db:"city"`
	ServiceType  ServiceType    `json:"service_type" db:"service_type"`
	Copies       int            `json:"copies" db:"copies"`
	DeliveryForm DeliveryForm   `json:"delivery_form" db:"delivery_form"`
	Scenario     string         `json:"scenario" db:"scenario"`
	Billing      BillingDetails `json:"billing_details" db:"billing_details"`
	Status       OrderStatus    `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateDocumentOrderRequest: запрос на создание заявки.
type CreateDocumentOrderRequest struct {
	DocumentType DocumentType      `json:"document_type"`
	City         string            `json:"city"`
	ServiceType  ServiceType       `json:"service_type"`
	Copies       int               `json:"copies"`
	DeliveryForm map[string]string `json:"delivery_form"`
}

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// UpdateOrderStatusRequest: запрос на смену статуса заявки.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
