// Package config предоставляет загрузку конфигурации SDK из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config содержит полную конфигурацию SDK.
type Config struct {
	App     AppConfig
	API     APIConfig
	Auth    AuthConfig
	Retry   RetryConfig
	Breaker BreakerConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Jaeger  JaegerConfig
	Metrics MetricsConfig
}

// AppConfig содержит общие настройки приложения.
type AppConfig struct {
	Name      string `env:"APP_NAME" envDefault:"saleor-storefront"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// APIConfig содержит настройки подключения к Saleor GraphQL API.
type APIConfig struct {
	URL           string        `env:"SALEOR_API_URL,required"`                // GraphQL endpoint (например https://demo.saleor.io/graphql/)
	Timeout       time.Duration `env:"SALEOR_API_TIMEOUT" envDefault:"30s"`   // Таймаут одного HTTP запроса
	UserAgent     string        `env:"SALEOR_USER_AGENT" envDefault:"saleor-storefront-go"`
	BatchEnabled  bool          `env:"SALEOR_BATCH_ENABLED" envDefault:"true"` // Объединять запросы в batch
	BatchInterval time.Duration `env:"SALEOR_BATCH_INTERVAL" envDefault:"10ms"`
	BatchMax      int           `env:"SALEOR_BATCH_MAX" envDefault:"10"` // Макс. операций в одном batch
}

// AuthConfig содержит настройки хранения токена аутентификации.
// Backend "file" хранит токен в файле на диске (один процесс),
// "redis" — в Redis (общая сессия для нескольких инстансов),
// "memory" — только в памяти процесса (тесты, короткоживущие утилиты).
type AuthConfig struct {
	StorageBackend string        `env:"AUTH_STORAGE" envDefault:"file"`
	TokenPath      string        `env:"AUTH_TOKEN_PATH" envDefault:""` // Путь к файлу токена; пусто = ~/.saleor/token
	RedisKey       string        `env:"AUTH_REDIS_KEY" envDefault:"saleor:auth:token"`
	RedisTTL       time.Duration `env:"AUTH_REDIS_TTL" envDefault:"720h"` // TTL токена в Redis (30 дней)
}

// RetryConfig содержит настройки повторов сетевых запросов.
// Повторяются только транспортные сбои — GraphQL ошибки не повторяются.
type RetryConfig struct {
	MaxAttempts  int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	InitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"300ms"`
	MaxDelay     time.Duration `env:"RETRY_MAX_DELAY" envDefault:"5s"`
}

// BreakerConfig содержит настройки Circuit Breaker.
type BreakerConfig struct {
	Enabled      bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	Interval     time.Duration `env:"BREAKER_INTERVAL" envDefault:"60s"` // Интервал сброса счётчика в Closed
	Timeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`  // Время в Open до перехода в Half-Open
	FailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	MinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// CacheConfig содержит настройки кэша ответов.
// Backend "memory" поддерживает подписку на обновления (watched queries),
// "redis" — общий кэш с TTL без подписки.
type CacheConfig struct {
	Backend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"` // TTL записей (только для redis)
}

// RedisConfig содержит настройки подключения к Redis.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Addr возвращает адрес Redis сервера.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JaegerConfig содержит настройки трассировки Jaeger.
type JaegerConfig struct {
	Enabled  bool   `env:"JAEGER_ENABLED" envDefault:"false"`
	Host     string `env:"JAEGER_HOST" envDefault:"localhost"`
	OTLPPort int    `env:"JAEGER_OTLP_PORT" envDefault:"4317"` // OTLP gRPC порт
}

// OTLPEndpoint возвращает OTLP gRPC endpoint для Jaeger.
func (c JaegerConfig) OTLPEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.OTLPPort)
}

// MetricsConfig содержит настройки Prometheus метрик.
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"false"` // Включить metrics endpoint
	Port    int  `env:"METRICS_PORT" envDefault:"9090"`     // Порт для /metrics
}

// Addr возвращает адрес для Metrics HTTP сервера.
func (c MetricsConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load загружает конфигурацию из переменных окружения.
// Опционально загружает .env файл, если он существует.
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файл не найден)
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return cfg, nil
}

// LoadFromFile загружает конфигурацию из указанного .env файла.
func LoadFromFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("ошибка загрузки .env файла %s: %w", path, err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return cfg, nil
}

// IsDevelopment возвращает true, если приложение запущено в development режиме.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction возвращает true, если приложение запущено в production режиме.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
