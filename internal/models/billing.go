package models

import (
	"errors"
	"fmt"
)

// ErrBillingInconsistent возвращается Verify, если итог не совпадает с разбивкой.
var ErrBillingInconsistent = errors.New("billing details are inconsistent")

// DocumentOrderLine: строка заказа (в текущем сценарии всегда одна).
type DocumentOrderLine struct {
	DocumentType DocumentType `json:"document_type"`
	DocumentName string       `json:"document_name"`
	Copies       int          `json:"copies"`
	UnitPrice    int64        `json:"unit_price"`
	TotalPrice   int64        `json:"total_price"`
}

// FeeLine: именованная строка сбора.
type FeeLine struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// PaymentBreakdown: разбивка итоговой суммы по категориям.
type PaymentBreakdown struct {
	DocumentsSubtotal int64 `json:"documents_subtotal"`
	PrestationFee     int64 `json:"prestation_fee"`
	ShippingFee       int64 `json:"shipping_fee"`
	ExpressFee        int64 `json:"express_fee"`
}

// Sum возвращает сумму всех категорий.
func (b PaymentBreakdown) Sum() int64 {
	return b.DocumentsSubtotal + b.PrestationFee + b.ShippingFee + b.ExpressFee
}

// BillingDetails: зафиксированный при создании заказа счёт.
// Сохраняется в заказе как есть и больше никогда не пересчитывается.
type BillingDetails struct {
	Documents        []DocumentOrderLine `json:"documents"`
	Prestation       FeeLine             `json:"prestation"`
	Shipping         *FeeLine            `json:"shipping,omitempty"`
	ExpressDelivery  *FeeLine            `json:"express_delivery,omitempty"`
	TotalAmount      int64               `json:"total_amount"`
	PaymentBreakdown PaymentBreakdown    `json:"payment_breakdown"`
}

// Verify проверяет согласованность итога, разбивки и строк счёта.
func (b *BillingDetails) Verify() error {
	if b.TotalAmount != b.PaymentBreakdown.Sum() {
		return fmt.Errorf("%w: total %d != breakdown %d", ErrBillingInconsistent, b.TotalAmount, b.PaymentBreakdown.Sum())
	}

	var docs int64
	for _, line := range b.Documents {
		docs += line.TotalPrice
	}
	if docs != b.PaymentBreakdown.DocumentsSubtotal {
		return fmt.Errorf("%w: documents %d != subtotal %d", ErrBillingInconsistent, docs, b.PaymentBreakdown.DocumentsSubtotal)
	}
	if b.Prestation.Amount != b.PaymentBreakdown.PrestationFee {
		return fmt.Errorf("%w: prestation line mismatch", ErrBillingInconsistent)
	}
	if lineAmount(b.Shipping) != b.PaymentBreakdown.ShippingFee {
		return fmt.Errorf("%w: shipping line mismatch", ErrBillingInconsistent)
	}
	if lineAmount(b.ExpressDelivery) != b.PaymentBreakdown.ExpressFee {
		return fmt.Errorf("%w: express line mismatch", ErrBillingInconsistent)
	}
	return nil
}

func lineAmount(l *FeeLine) int64 {
	if l == nil {
		return 0
	}
	return l.Amount
}
