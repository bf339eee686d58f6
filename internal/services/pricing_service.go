package services

import (
	"fmt"
	"math"

	"document-delivery/internal/apperror"
	"document-delivery/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidTariffConfig возвращается для тарифа, по которому нельзя посчитать цену.
var ErrInvalidTariffConfig = models.ErrInvalidTariffConfig

const earthRadiusKm = 6371.0

// DistanceKm возвращает расстояние по большому кругу (гаверсинус) в километрах.
func DistanceKm(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// PriceFromDistance считает цену доставки между двумя точками по тарифу.
// Цена округляется вверх до кратного Rounding и ограничивается [MinPrice, MaxPrice].
// Расстояния в ответе округлены до 0.1 км, цена считается по неокруглённым значениям.
func PriceFromDistance(a, b models.GeoPoint, cfg models.TariffConfig) (models.DistanceQuote, error) {
	if err := cfg.Validate(); err != nil {
		return models.DistanceQuote{}, apperror.InvalidConfig("express tariff is misconfigured", err)
	}

	distance := DistanceKm(a, b)
	road := distance * cfg.RoadFactor
	if math.IsNaN(road) || math.IsInf(road, 0) {
		return models.DistanceQuote{}, apperror.InvalidConfig("delivery coordinates are invalid",
			fmt.Errorf("non-finite distance between %+v and %+v", a, b))
	}

	return models.DistanceQuote{
		Price:          priceForRoadDistance(road, cfg),
		DistanceKm:     roundTenth(distance),
		RoadDistanceKm: roundTenth(road),
	}, nil
}

// priceForRoadDistance ожидает уже проверенный тариф.
func priceForRoadDistance(roadKm float64, cfg models.TariffConfig) int64 {
	raw := decimal.NewFromInt(cfg.BaseFee).
		Add(decimal.NewFromFloat(roadKm).Mul(decimal.NewFromInt(cfg.PerKmRate)))

	step := decimal.NewFromInt(cfg.Rounding)
	price := raw.Div(step).Ceil().Mul(step).IntPart()

	if price < cfg.MinPrice {
		price = cfg.MinPrice
	}
	if price > cfg.MaxPrice {
		price = cfg.MaxPrice
	}
	return price
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
