package services

import (
	"fmt"

	"document-delivery/internal/commune"
	"document-delivery/internal/models"
)

// Сборы, входящие в счёт (FCFA).
const (
	DirectPickupPrestationFee int64 = 1000
	StandardPrestationFee     int64 = 2000
	UTBShippingFeePerCopy     int64 = 1000
	FlatShippingFee           int64 = 1000
	TransitViaCapitalFee      int64 = 4000
	DefaultExpressFee         int64 = 2000
)

// Scenario: маршрут заказа относительно столицы.
type Scenario string

const (
	ScenarioCapitalToCapital Scenario = "capital_to_capital"
	ScenarioSameCity         Scenario = "same_city"
	ScenarioCapitalToRegion  Scenario = "capital_to_region"
	ScenarioRegionToCapital  Scenario = "region_to_capital"
	ScenarioRegionToRegion   Scenario = "region_to_region"
)

// ClassifyScenario определяет сценарий по городу выдачи и городу назначения.
// Пустой город назначения (самовывоз) считается не столичным.
func ClassifyScenario(origin, destination string) Scenario {
	originIsCapital := commune.IsCapital(origin)
	destinationIsCapital := commune.IsCapital(destination)

	switch {
	case originIsCapital && destinationIsCapital:
		return ScenarioCapitalToCapital
	case commune.SameCity(origin, destination):
		return ScenarioSameCity
	case originIsCapital:
		return ScenarioCapitalToRegion
	case destinationIsCapital:
		return ScenarioRegionToCapital
	default:
		return ScenarioRegionToRegion
	}
}

// BillingInput: всё, что нужно для фиксации счёта. Document содержит строку,
// посчитанную DocumentPricingService; ExpressPriceOverride содержит цену по расстоянию, если она известна.
// Учитывается только положительный ExpressPriceOverride: nil, ноль и отрицательное значение
// дают сбор по умолчанию DefaultExpressFee.
type BillingInput struct {
	Document             models.DocumentOrderLine
	OriginCity           string
	Form                 models.DeliveryForm
	ExpressPriceOverride *int64
}

// CaptureResult: зафиксированный счёт и признаки, по которым он построен.
// Unmatched = true, если способ получения не распознан и сборы доставки обнулены.
type CaptureResult struct {
	Billing              models.BillingDetails
	Scenario             Scenario
	OriginIsCapital      bool
	DestinationIsCapital bool
	Recovery             models.RecoveryMode
	Unmatched            bool
}

// CaptureBilling строит счёт заказа. Функция чистая: одинаковый вход даёт одинаковый счёт.
func CaptureBilling(in BillingInput) CaptureResult {
	destination := in.Form.DestinationCity()
	recovery := in.Form.RecoveryMode()

	result := CaptureResult{
		Scenario:             ClassifyScenario(in.OriginCity, destination),
		OriginIsCapital:      commune.IsCapital(in.OriginCity),
		DestinationIsCapital: commune.IsCapital(destination),
		Recovery:             recovery,
		Unmatched:            recovery.Kind == models.RecoveryOther,
	}

	line := in.Document
	line.TotalPrice = LineTotal(line.UnitPrice, line.Copies)

	prestation := prestationLine(recovery)
	shipping := shippingLine(result.Scenario, recovery, in)
	express := expressLine(result.OriginIsCapital, result.DestinationIsCapital, recovery, in.ExpressPriceOverride)

	breakdown := models.PaymentBreakdown{
		DocumentsSubtotal: line.TotalPrice,
		PrestationFee:     prestation.Amount,
		ShippingFee:       amountOf(shipping),
		ExpressFee:        amountOf(express),
	}

	result.Billing = models.BillingDetails{
		Documents:        []models.DocumentOrderLine{line},
		Prestation:       prestation,
		Shipping:         shipping,
		ExpressDelivery:  express,
		TotalAmount:      breakdown.Sum(),
		PaymentBreakdown: breakdown,
	}
	return result
}

func prestationLine(recovery models.RecoveryMode) models.FeeLine {
	if recovery.Kind == models.RecoveryDirectPickup {
		return models.FeeLine{Description: "Direct pickup service fee", Amount: DirectPickupPrestationFee}
	}
	return models.FeeLine{Description: "Service fee", Amount: StandardPrestationFee}
}

func shippingLine(scenario Scenario, recovery models.RecoveryMode, in BillingInput) *models.FeeLine {
	switch scenario {
	case ScenarioCapitalToCapital, ScenarioSameCity:
		return nil
	case ScenarioCapitalToRegion, ScenarioRegionToCapital:
		if !recovery.Ships() {
			return nil
		}
		return carrierShipping(in)
	case ScenarioRegionToRegion:
		if !recovery.Ships() {
			return nil
		}
		if in.Form.ExpeditionMode().Kind == models.ExpeditionViaCapital {
			return positive(models.FeeLine{
				Description: fmt.Sprintf("Shipping %s → %s, transit via %s",
					commune.Title(in.OriginCity), commune.DisplayDestination(in.Form.DestinationCity()), commune.CapitalName),
				Amount: TransitViaCapitalFee,
			})
		}
		return carrierShipping(in)
	}
	return nil
}

// carrierShipping: UTB берёт за каждый экземпляр, остальные перевозчики за отправку.
func carrierShipping(in BillingInput) *models.FeeLine {
	amount := FlatShippingFee
	if in.Form.ExpeditionMode().Kind == models.ExpeditionUTB {
		amount = UTBShippingFeePerCopy * int64(in.Document.Copies)
	}

	return positive(models.FeeLine{
		Description: fmt.Sprintf("Shipping %s → %s (%s)",
			commune.Title(in.OriginCity), commune.DisplayDestination(in.Form.DestinationCity()), in.Form.CarrierName()),
		Amount: amount,
	})
}

func expressLine(originIsCapital, destinationIsCapital bool, recovery models.RecoveryMode, override *int64) *models.FeeLine {
	amount := DefaultExpressFee
	if override != nil && *override > 0 {
		amount = *override
	}

	switch {
	case originIsCapital && !destinationIsCapital:
		// Курьер везёт документ из мэрии на вокзал при любом способе, требующем отправки.
		if recovery.Ships() {
			return positive(models.FeeLine{Description: "Courier pickup from office to depot", Amount: amount})
		}
	case recovery.Kind == models.RecoveryExpressDelivery:
		return positive(models.FeeLine{Description: "Express delivery", Amount: amount})
	}
	return nil
}

func positive(line models.FeeLine) *models.FeeLine {
	if line.Amount <= 0 {
		return nil
	}
	return &line
}

func amountOf(line *models.FeeLine) int64 {
	if line == nil {
		return 0
	}
	return line.Amount
}
