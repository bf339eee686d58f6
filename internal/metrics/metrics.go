// Package metrics содержит Prometheus-метрики расчёта цен и фиксации счетов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты расчёта экспресс-цены.
const (
	QuoteResultOK       = "ok"
	QuoteResultNoTariff = "no_tariff"
	QuoteResultError    = "error"
)

var (
	// QuotesTotal считает расчёты цены по виду (express, depot, sector) и результату.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "document_delivery",
		Name:      "quotes_total",
		Help:      "Express delivery price quotes by kind and result.",
	}, []string{"kind", "result"})

	// PickupFallbackTotal считает подстановки резервной точки выдачи.
	PickupFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "document_delivery",
		Name:      "pickup_fallback_total",
		Help:      "Pickup point lookups answered with the fallback coordinate.",
	})

	// BillingCapturedTotal считает зафиксированные счета по сценарию.
	BillingCapturedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "document_delivery",
		Name:      "billing_captured_total",
		Help:      "Captured billing snapshots by delivery scenario.",
	}, []string{"scenario"})

	// BillingUnmatchedTotal считает счета, для которых не нашлось строки в таблице решений.
	BillingUnmatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "document_delivery",
		Name:      "billing_unmatched_total",
		Help:      "Billing captures with an unrecognized recovery mode.",
	})

	// BillingAmount распределение итоговых сумм счетов (FCFA).
	BillingAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "document_delivery",
		Name:      "billing_total_amount_fcfa",
		Help:      "Total amount of captured billing snapshots.",
		Buckets:   []float64{1000, 2500, 5000, 7500, 10000, 15000, 25000, 50000},
	})

	// CacheLookupsTotal считает обращения к кешу справочников.
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "document_delivery",
		Name:      "cache_lookups_total",
		Help:      "Reference cache lookups by cache name and result.",
	}, []string{"cache", "result"})
)

// CacheHit отмечает попадание в кеш.
func CacheHit(cache string) { CacheLookupsTotal.WithLabelValues(cache, "hit").Inc() }

// CacheMiss отмечает промах кеша.
func CacheMiss(cache string) { CacheLookupsTotal.WithLabelValues(cache, "miss").Inc() }
