package graphql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// prefixCache — префикс ключей кэша ответов в Redis.
const prefixCache = "saleor:cache:"

// RedisCache — кэш ответов в Redis с TTL.
// Общий для нескольких инстансов приложения; подписку на обновления
// не поддерживает (наблюдаемые запросы при Redis backend получают
// только пару кэш+сеть без повторных эмиссий).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создаёт кэш ответов поверх Redis клиента.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get возвращает закэшированные данные операции.
// Ошибка Redis трактуется как промах кэша: кэш — некритичная зависимость.
func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, err := c.client.Get(ctx, prefixCache+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Ошибка чтения кэша Redis")
		}
		return nil, false
	}
	return raw, true
}

// Set сохраняет данные операции с TTL.
func (c *RedisCache) Set(ctx context.Context, key string, data json.RawMessage) {
	if err := c.client.Set(ctx, prefixCache+key, []byte(data), c.ttl).Err(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Ошибка записи кэша Redis")
	}
}

// Invalidate удаляет запись.
func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, prefixCache+key).Err(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Ошибка инвалидации кэша Redis")
	}
}

// Clear удаляет все записи кэша по префиксу.
func (c *RedisCache) Clear(ctx context.Context) {
	log := logger.FromContext(ctx)

	iter := c.client.Scan(ctx, 0, prefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Msg("Ошибка очистки кэша Redis")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("Ошибка обхода ключей кэша Redis")
	}
}
