package models

import "time"

// BillingReportFilter задаёт интервал отчёта.
type BillingReportFilter struct {
	From time.Time
	To   time.Time
}

// BillingReport: суммы по категориям, прочитанные из зафиксированных счетов.
type BillingReport struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	OrdersCount       int             `json:"orders_count"`
	DocumentsSubtotal int64           `json:"documents_subtotal"`
	PrestationFees    int64           `json:"prestation_fees"`
	ShippingFees      int64           `json:"shipping_fees"`
	ExpressFees       int64           `json:"express_fees"`
	TotalAmount       int64           `json:"total_amount"`
	Scenarios         []ScenarioTotal `json:"scenarios"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// ScenarioTotal: агрегат по сценарию доставки.
type ScenarioTotal struct {
	Scenario    string `json:"scenario"`
	OrdersCount int    `json:"orders_count"`
	TotalAmount int64  `json:"total_amount"`
}
