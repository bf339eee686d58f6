package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/logger"
	"document-delivery/internal/services"
)

// MiddlewareLimiter описывает контракт для rate limiter.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, key string) (services.RateDecision, error)
	Enabled() bool
}

// RateLimitStatusProvider добавляет чтение окна без учёта запроса.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, key string) (services.RateUsage, error)
}

// RateLimitStatus: состояние окна клиента для /api/rate-limit/status.
type RateLimitStatus struct {
	Enabled       bool   `json:"enabled"`
	Key           string `json:"key,omitempty"`
	Limit         int64  `json:"limit,omitempty"`
	WindowSeconds int    `json:"window_seconds,omitempty"`
	Used          int64  `json:"used"`
	Remaining     int64  `json:"remaining"`
	ResetAt       string `json:"reset_at,omitempty"`
}

// RateLimitHandler отдаёт клиенту его текущее окно лимита.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
	cfg     *config.RateLimitConfig
}

// NewRateLimitHandler создает новый RateLimitHandler.
func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, log: log, cfg: cfg}
}

// Status возвращает текущие значения лимита для клиента.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.limiter == nil || h.cfg == nil || !h.cfg.Enabled {
		writeJSONResponse(w, http.StatusOK, RateLimitStatus{Enabled: false})
		return
	}

	key := services.ExtractClientIP(r)
	usage, err := h.limiter.Usage(r.Context(), key)
	if err != nil {
		h.log.WithError(err).WithField("client", key).Error("Failed to fetch rate limit usage")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch rate limit usage")
		return
	}

	status := RateLimitStatus{
		Enabled:       true,
		Key:           key,
		Limit:         usage.Limit,
		WindowSeconds: h.cfg.WindowSeconds,
		Used:          usage.Used,
		Remaining:     usage.Remaining,
	}
	if usage.ResetAt != nil {
		status.ResetAt = usage.ResetAt.UTC().Format(time.RFC3339)
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// RateLimitMiddleware считает запрос клиента и отвечает 429 сверх лимита.
// Если счётчик недоступен, запрос отклоняется с 503.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil || !limiter.Enabled() {
			next(w, r)
			return
		}

		key := services.ExtractClientIP(r)
		decision, err := limiter.Allow(r.Context(), key)
		if err != nil {
			log.WithError(err).WithField("client", key).Error("Rate limiter failed")
			writeErrorResponse(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
			return
		}

		setRateLimitHeaders(w, decision, time.Now())
		if !decision.Allowed {
			log.WithField("client", key).WithField("path", r.URL.Path).Debug("Rate limit exceeded")
			writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next(w, r)
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d services.RateDecision, now time.Time) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
	if d.ResetAt.IsZero() {
		return
	}
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		wait := int64(d.ResetAt.Sub(now).Seconds())
		if wait < 1 {
			wait = 1
		}
		h.Set("Retry-After", strconv.FormatInt(wait, 10))
	}
}
