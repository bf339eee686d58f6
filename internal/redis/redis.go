package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/logger"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в кеше
var ErrCacheMiss = errors.New("cache miss")

// Префиксы ключей справочников, заявок и отчётов.
const (
	KeyPrefixOrder       = "order"
	KeyPrefixTariff      = "tariff"
	KeyPrefixPickupPoint = "pickup"
	KeyPrefixSectors     = "sectors"
	KeyPrefixZones       = "zones"
	KeyPrefixCityPricing = "city_pricing"
	KeyPrefixReport      = "billing_report"
)

const (
	connectTimeout = 3 * time.Second
	scanBatch      = 100
	deleteBatch    = 500
)

// Client хранит JSON значения справочников и счётчики лимитов.
type Client struct {
	client *redis.Client
	log    *logger.Logger
}

// Connect создает подключение к Redis и проверяет его через PING.
func Connect(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	log.WithField("addr", addr).WithField("db", cfg.DB).Info("Successfully connected to Redis")
	return &Client{client: rdb, log: log}, nil
}

// Close закрывает подключение к Redis
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// keyErr приводит redis.Nil к ErrCacheMiss, остальные ошибки оборачивает с операцией и ключом.
func keyErr(op, key string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("key %s: %w", key, ErrCacheMiss)
	}
	return fmt.Errorf("redis %s %s: %w", op, key, err)
}

// Set сериализует значение в JSON и сохраняет с TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return keyErr("SET", key, err)
	}

	c.log.WithField("key", key).WithField("ttl", ttl.String()).Debug("Cached value")
	return nil
}

// Get читает значение и десериализует его в dest.
// Для отсутствующего ключа возвращает ошибку, совместимую с ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return keyErr("GET", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}
	return nil
}

// Delete удаляет значение по ключу
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return keyErr("DEL", key, err)
	}
	c.log.WithField("key", key).Debug("Cache entry deleted")
	return nil
}

// DeleteByPrefix удаляет все ключи с префиксом. Ключи ищутся через SCAN и удаляются пачками.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, deleteBatch)
	deleted := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return keyErr("DEL", prefix+"*", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return keyErr("SCAN", prefix+"*", err)
	}
	if err := flush(); err != nil {
		return err
	}

	if deleted > 0 {
		c.log.WithField("prefix", prefix).WithField("count", deleted).Debug("Cache entries deleted by prefix")
	}
	return nil
}

// Incr увеличивает счётчик и возвращает новое значение
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, keyErr("INCR", key, err)
	}
	return val, nil
}

// Expire устанавливает TTL для ключа
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return keyErr("EXPIRE", key, err)
	}
	return nil
}

// TTL возвращает оставшийся TTL для ключа
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, keyErr("TTL", key, err)
	}
	return ttl, nil
}

// GetInt читает счётчик
func (c *Client) GetInt(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0, keyErr("GET", key, err)
	}
	return val, nil
}

// Health проверяет состояние Redis
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GenerateKey собирает ключ вида prefix:part1:part2. Части ключа приводятся к нижнему регистру,
// чтобы "Cocody" и "COCODY" попадали в одну запись.
func GenerateKey(prefix string, parts ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(strings.ToLower(strings.TrimSpace(p)))
	}
	return b.String()
}
