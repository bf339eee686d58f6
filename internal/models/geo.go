package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTariffConfig возвращается для тарифа, по которому нельзя посчитать цену.
var ErrInvalidTariffConfig = errors.New("invalid tariff config")

// GeoPoint: неизменяемая координата WGS 84 в градусах.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TariffConfig: снимок активного тарифа экспресс-доставки.
// Загружается один раз на расчёт и не меняется во время него.
type TariffConfig struct {
	BaseFee    int64   `json:"base_fee" db:"base_fee"`
	PerKmRate  int64   `json:"per_km_rate" db:"per_km_rate"`
	RoadFactor float64 `json:"road_factor" db:"road_factor"` // >= 1, перевод расстояния по прямой в дорожное
	Rounding   int64   `json:"rounding" db:"rounding"`       // цена округляется вверх до кратного
	MinPrice   int64   `json:"min_price" db:"min_price"`
	MaxPrice   int64   `json:"max_price" db:"max_price"`
}

// Validate проверяет, что по тарифу можно посчитать цену.
func (c TariffConfig) Validate() error {
	switch {
	case c.Rounding <= 0:
		return fmt.Errorf("%w: rounding must be positive, got %d", ErrInvalidTariffConfig, c.Rounding)
	case c.PerKmRate < 0:
		return fmt.Errorf("%w: per_km_rate must not be negative, got %d", ErrInvalidTariffConfig, c.PerKmRate)
	case math.IsNaN(c.RoadFactor) || math.IsInf(c.RoadFactor, 0) || c.RoadFactor < 1:
		return fmt.Errorf("%w: road_factor must be a finite value >= 1, got %v", ErrInvalidTariffConfig, c.RoadFactor)
	case c.MinPrice > c.MaxPrice:
		return fmt.Errorf("%w: min_price %d exceeds max_price %d", ErrInvalidTariffConfig, c.MinPrice, c.MaxPrice)
	}
	return nil
}

// DistanceQuote: результат расчёта цены по расстоянию.
type DistanceQuote struct {
	Price          int64   `json:"price"`
	DistanceKm     float64 `json:"distance_km"`
	RoadDistanceKm float64 `json:"road_distance_km"`
}
