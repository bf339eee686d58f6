package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип доменного события
type EventType string

const (
	EventTypeOrderCreated     EventType = "order.created"
	EventTypeBillingCaptured  EventType = "billing.captured"
	EventTypeTariffUpdated    EventType = "tariff.updated"
	EventTypeReferenceUpdated EventType = "reference.updated"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Reference-наборы, которые может инвалидировать событие reference.updated.
const (
	ReferencePickupPoints = "pickup_points"
	ReferenceSectors      = "sectors"
	ReferenceZones        = "zones"
	ReferenceCityPricing  = "city_pricing"
)
