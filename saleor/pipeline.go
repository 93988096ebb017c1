package saleor

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/CharlieCarsonKids/saleor-storefront/auth"
	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/config"
)

// FromConfig собирает SDK целиком: хранилище токена, кэш, транспортный
// пайплайн и диспетчер. Возвращаемая функция закрывает фоновые ресурсы
// (batch диспетчер, соединение Redis).
func FromConfig(cfg *config.Config, opts ...Option) (*API, func(), error) {
	var (
		rdb     *redis.Client
		cleanup []func()
	)

	// Redis клиент создаётся один на оба потребителя (auth и кэш).
	needRedis := cfg.Auth.StorageBackend == "redis" || cfg.Cache.Backend == "redis"
	if needRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup = append(cleanup, func() { _ = rdb.Close() })
	}

	storage, err := newStorage(cfg, rdb)
	if err != nil {
		return nil, nil, err
	}
	tokens := auth.NewTokenStore(storage)

	cache := newCache(cfg, rdb)

	pipeline, closePipeline := NewPipeline(cfg, tokens)
	cleanup = append(cleanup, closePipeline)

	if cache != nil {
		opts = append([]Option{WithCache(cache)}, opts...)
	}
	api := New(pipeline, tokens, opts...)

	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
	return api, closeAll, nil
}

// newStorage выбирает долговременное хранилище токена по конфигурации.
func newStorage(cfg *config.Config, rdb *redis.Client) (auth.Storage, error) {
	switch cfg.Auth.StorageBackend {
	case "file":
		return auth.NewFileStorage(cfg.Auth.TokenPath), nil
	case "redis":
		return auth.NewRedisStorage(rdb, cfg.Auth.RedisKey, cfg.Auth.RedisTTL), nil
	case "memory":
		return auth.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("неизвестный backend хранилища токена: %s", cfg.Auth.StorageBackend)
	}
}

// newCache выбирает кэш ответов по конфигурации.
// Неизвестный backend трактуется как отсутствие кэша.
func newCache(cfg *config.Config, rdb *redis.Client) graphql.Cache {
	switch cfg.Cache.Backend {
	case "memory":
		return graphql.NewMemoryCache()
	case "redis":
		return graphql.NewRedisCache(rdb, cfg.Cache.TTL)
	default:
		return nil
	}
}

// NewPipeline собирает транспортный пайплайн из конфигурации:
//
//	детектор невалидного токена → подстановка токена → tracing → metrics →
//	circuit breaker → retry → batch/HTTP отправка
//
// Возвращаемая функция останавливает batch диспетчер (no-op для HTTP звена).
func NewPipeline(cfg *config.Config, tokens *auth.TokenStore) (graphql.Link, func()) {
	var (
		terminal graphql.Link
		closeFn  = func() {}
	)

	if cfg.API.BatchEnabled {
		batch := graphql.NewBatchLink(cfg.API.URL,
			graphql.WithBatchInterval(cfg.API.BatchInterval),
			graphql.WithBatchMax(cfg.API.BatchMax),
		)
		terminal = batch
		closeFn = batch.Close
	} else {
		terminal = graphql.NewHTTPLink(cfg.API.URL,
			graphql.WithTimeout(cfg.API.Timeout),
			graphql.WithUserAgent(cfg.API.UserAgent),
		)
	}

	middlewares := []graphql.Middleware{
		auth.DetectInvalidToken(tokens),
		auth.AttachToken(tokens),
		graphql.Tracing(),
		graphql.Metrics(),
	}

	if cfg.Breaker.Enabled {
		middlewares = append(middlewares, graphql.CircuitBreaker("saleor-api", graphql.BreakerSettings{
			MaxRequests:  1,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			FailureRatio: cfg.Breaker.FailureRatio,
			MinRequests:  cfg.Breaker.MinRequests,
		}))
	}

	middlewares = append(middlewares, graphql.Retry(graphql.RetrySettings{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}))

	return graphql.Chain(terminal, middlewares...), closeFn
}
