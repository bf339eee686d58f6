package models

import "github.com/google/uuid"

// DeliverySector: район доставки внутри коммуны со своей GPS-точкой.
type DeliverySector struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ZoneID       uuid.UUID `json:"zone_id" db:"zone_id"`
	Commune      string    `json:"commune" db:"commune"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Location     GeoPoint  `json:"location"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
}

// DeliveryZone группирует коммуны для административной настройки.
type DeliveryZone struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Code     string    `json:"code" db:"code"`
	Communes []string  `json:"communes" db:"communes"`
	IsActive bool      `json:"is_active" db:"is_active"`
}

// CommunePickupPoint: координата мэрии (пункта выдачи) коммуны.
type CommunePickupPoint struct {
	Commune  string   `json:"commune" db:"commune"`
	Location GeoPoint `json:"location"`
}

// CommuneSectors: коммуна и её активные районы в порядке отображения.
type CommuneSectors struct {
	Commune string           `json:"commune"`
	Sectors []DeliverySector `json:"sectors"`
}
