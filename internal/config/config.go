package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Pricing   PricingConfig   `json:"pricing"`
	Reports   ReportsConfig   `json:"reports"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`

	// AutoMigrate применяет встроенную схему при старте сервера.
	AutoMigrate bool `json:"auto_migrate"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Orders    string `json:"orders"`
	Reference string `json:"reference"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// PricingConfig хранит параметры расчёта доставки, не зависящие от тарифа в БД.
type PricingConfig struct {
	// Резервная точка выдачи (площадь Республики, Плато) для коммун без зарегистрированной мэрии.
	FallbackLat float64 `json:"fallback_lat"`
	FallbackLon float64 `json:"fallback_lon"`
	// Автовокзал (gare) для отправки документов во внутренние города.
	DepotLat float64 `json:"depot_lat"`
	DepotLon float64 `json:"depot_lon"`

	TariffCacheTTLSeconds    int `json:"tariff_cache_ttl_seconds"`
	ReferenceCacheTTLMinutes int `json:"reference_cache_ttl_minutes"`
	StoreTimeoutSeconds      int `json:"store_timeout_seconds"`
}

// ReportsConfig хранит настройки отчётов по выставленным счетам
type ReportsConfig struct {
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
	MaxRangeDays    int `json:"max_range_days"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// Load загружает конфигурацию из переменных окружения (и .env, если он есть)
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "documents_user"),
			Password: getEnv("DB_PASSWORD", "documents_pass"),
			DBName:   getEnv("DB_NAME", "document_delivery"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "document-delivery"),
			Topics: Topics{
				Orders:    getEnv("KAFKA_TOPIC_ORDERS", "document-orders"),
				Reference: getEnv("KAFKA_TOPIC_REFERENCE", "delivery-reference"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Pricing: PricingConfig{
			FallbackLat:              getEnvAsFloat("PRICING_FALLBACK_LAT", 5.3196),
			FallbackLon:              getEnvAsFloat("PRICING_FALLBACK_LON", -4.0160),
			DepotLat:                 getEnvAsFloat("PRICING_DEPOT_LAT", 5.3650),
			DepotLon:                 getEnvAsFloat("PRICING_DEPOT_LON", -4.0194),
			TariffCacheTTLSeconds:    getEnvAsInt("PRICING_TARIFF_CACHE_TTL_SECONDS", 60),
			ReferenceCacheTTLMinutes: getEnvAsInt("PRICING_REFERENCE_CACHE_TTL_MINUTES", 30),
			StoreTimeoutSeconds:      getEnvAsInt("PRICING_STORE_TIMEOUT_SECONDS", 5),
		},
		Reports: ReportsConfig{
			CacheTTLMinutes: getEnvAsInt("REPORTS_CACHE_TTL_MINUTES", 10),
			MaxRangeDays:    getEnvAsInt("REPORTS_MAX_RANGE_DAYS", 366),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 60),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "quotes_ratelimit"),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat получает значение переменной окружения как float64 с значением по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
