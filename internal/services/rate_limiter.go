package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/logger"
	"document-delivery/internal/redis"
)

// RateDecision: результат проверки запроса против лимита.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateUsage: текущее состояние окна клиента.
type RateUsage struct {
	Used      int64
	Remaining int64
	Limit     int64
	ResetAt   *time.Time
}

// RateLimiter ограничивает число запросов расчёта цены в фиксированном окне на клиента.
// Счётчики живут в Redis, поэтому лимит общий для всех экземпляров сервиса.
type RateLimiter struct {
	store   counterStore
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// NewRateLimiter создаёт rate limiter. Без Redis или с выключенным конфигом лимит не применяется.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "quotes_ratelimit"
	}

	return &RateLimiter{
		store:   redisClient,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

// Allow учитывает запрос клиента и сообщает, укладывается ли он в лимит.
func (r *RateLimiter) Allow(ctx context.Context, client string) (RateDecision, error) {
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	key := r.counterKey(client)
	count, err := r.store.Incr(ctx, key)
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	// Первый запрос открывает окно.
	if count == 1 {
		if err := r.store.Expire(ctx, key, r.window); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Failed to set rate limit window")
		}
	}

	return RateDecision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: r.remaining(count),
		ResetAt:   time.Now().Add(r.windowLeft(ctx, key)),
	}, nil
}

// Usage возвращает состояние окна без учёта нового запроса.
func (r *RateLimiter) Usage(ctx context.Context, client string) (RateUsage, error) {
	if !r.enabled {
		return RateUsage{Remaining: r.limit, Limit: r.limit}, nil
	}

	key := r.counterKey(client)
	count, err := r.store.GetInt(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return RateUsage{Remaining: r.limit, Limit: r.limit}, nil
		}
		return RateUsage{}, fmt.Errorf("rate limiter usage failed: %w", err)
	}

	resetAt := time.Now().Add(r.windowLeft(ctx, key))
	return RateUsage{
		Used:      count,
		Remaining: r.remaining(count),
		Limit:     r.limit,
		ResetAt:   &resetAt,
	}, nil
}

// Enabled сообщает, включён ли лимит.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

func (r *RateLimiter) remaining(count int64) int64 {
	if count >= r.limit {
		return 0
	}
	return r.limit - count
}

func (r *RateLimiter) windowLeft(ctx context.Context, key string) time.Duration {
	ttl, err := r.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Failed to get rate limit window")
		}
		return r.window
	}
	return ttl
}

func (r *RateLimiter) counterKey(client string) string {
	return r.prefix + ":" + strings.ReplaceAll(client, ":", "_")
}

// ExtractClientIP берёт адрес клиента из X-Real-IP, X-Forwarded-For или RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
