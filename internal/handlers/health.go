package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"document-delivery/internal/models"

	"github.com/IBM/sarama"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// KafkaChecker проверяет доступность брокеров.
type KafkaChecker func(brokers []string) error

// TariffProbe отдаёт действующий тариф экспресс-доставки.
type TariffProbe interface {
	ActiveTariff(ctx context.Context) (*models.TariffConfig, error)
}

// HealthHandler проверяет инфраструктуру и готовность расчёта цен.
type HealthHandler struct {
	db           DBHealth
	redisClient  RedisHealth
	kafkaBrokers []string
	kafkaCheck   KafkaChecker
	tariffs      TariffProbe
}

// NewHealthHandler создает новый обработчик здоровья
func NewHealthHandler(db DBHealth, redisClient RedisHealth, kafkaBrokers []string, kafkaCheck KafkaChecker) *HealthHandler {
	if kafkaCheck == nil {
		kafkaCheck = checkKafkaHealth
	}
	return &HealthHandler{
		db:           db,
		redisClient:  redisClient,
		kafkaBrokers: kafkaBrokers,
		kafkaCheck:   kafkaCheck,
	}
}

// WithTariffProbe добавляет в отчёт компонент express_pricing.
// Отсутствие тарифа не делает сервис недоступным: заявки без экспресса продолжают приниматься.
func (h *HealthHandler) WithTariffProbe(probe TariffProbe) *HealthHandler {
	h.tariffs = probe
	return h
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime"`
}

type componentCheck struct {
	name     string
	notReady string
	check    func(ctx context.Context) error
}

var startTime = time.Now()

func (h *HealthHandler) infrastructure() []componentCheck {
	return []componentCheck{
		{name: "database", notReady: "Database not ready", check: func(context.Context) error { return h.db.Health() }},
		{name: "redis", notReady: "Redis not ready", check: h.redisClient.Health},
		{name: "kafka", notReady: "Kafka not ready", check: func(context.Context) error { return h.kafkaCheck(h.kafkaBrokers) }},
	}
}

// Health проверяет состояние всех компонентов системы
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	overallStatus := statusHealthy

	for _, c := range h.infrastructure() {
		if err := c.check(ctx); err != nil {
			services[c.name] = statusUnhealthy + ": " + err.Error()
			overallStatus = statusUnhealthy
			continue
		}
		services[c.name] = statusHealthy
	}

	if h.tariffs != nil {
		state := h.pricingState(ctx)
		services["express_pricing"] = state
		if state != statusHealthy && overallStatus == statusHealthy {
			overallStatus = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if overallStatus == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, HealthResponse{
		Status:   overallStatus,
		Services: services,
		Version:  "1.0.0",
		Uptime:   time.Since(startTime).String(),
	})
}

func (h *HealthHandler) pricingState(ctx context.Context) string {
	tariff, err := h.tariffs.ActiveTariff(ctx)
	switch {
	case err != nil:
		return statusDegraded + ": " + err.Error()
	case tariff == nil:
		return statusDegraded + ": no active tariff"
	default:
		return statusHealthy
	}
}

// Readiness проверяет готовность приложения к обработке запросов
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range h.infrastructure() {
		if err := c.check(ctx); err != nil {
			writeErrorResponse(w, http.StatusServiceUnavailable, c.notReady)
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Liveness проверяет, что приложение живо
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

// CheckKafkaHealth проверяет доступность Kafka брокеров.
func CheckKafkaHealth(brokers []string) error {
	return checkKafkaHealth(brokers)
}

func checkKafkaHealth(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = 3 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 500 * time.Millisecond

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return fmt.Errorf("kafka brokers unreachable: %w", err)
	}
	defer client.Close()

	if len(client.Brokers()) == 0 {
		return fmt.Errorf("kafka cluster metadata has no brokers")
	}
	return nil
}
