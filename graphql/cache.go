package graphql

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// Cache — хранилище ответов операций с стандартной get/set/invalidate
// семантикой. Ключ — Request.CacheKey(), значение — сырое поле data ответа.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, data json.RawMessage)
	Invalidate(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// WatchableCache — кэш с подпиской на обновления ключа.
// Используется наблюдаемыми запросами для повторной эмиссии
// при изменении кэша.
type WatchableCache interface {
	Cache

	// Watch возвращает канал обновлений ключа и функцию отписки.
	// Канал получает новое значение data при каждом Set этого ключа.
	Watch(key string) (<-chan json.RawMessage, func())
}

// MemoryCache — процессный кэш ответов с поддержкой подписки.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]json.RawMessage
	watchers map[string]map[int]chan json.RawMessage
	nextID   int
}

// NewMemoryCache создаёт пустой кэш в памяти.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]json.RawMessage),
		watchers: make(map[string]map[int]chan json.RawMessage),
	}
}

// Get возвращает закэшированные данные операции.
func (c *MemoryCache) Get(_ context.Context, key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.entries[key]
	return data, ok
}

// Set сохраняет данные операции и уведомляет подписчиков ключа.
func (c *MemoryCache) Set(_ context.Context, key string, data json.RawMessage) {
	c.mu.Lock()
	c.entries[key] = data
	subscribers := make([]chan json.RawMessage, 0, len(c.watchers[key]))
	for _, ch := range c.watchers[key] {
		subscribers = append(subscribers, ch)
	}
	c.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- data:
		default:
			// Подписчик не успевает вычитывать обновления.
			logger.Warn().Str("key", key).Msg("Обновление кэша отброшено: подписчик переполнен")
		}
	}
}

// Invalidate удаляет запись. Подписчики не уведомляются:
// инвалидация означает "данных больше нет", а не "данные изменились".
func (c *MemoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear удаляет все записи. Вызывается при выходе пользователя,
// чтобы кэш не пережил сессию.
func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]json.RawMessage)
}

// Watch подписывает на обновления ключа.
// Возвращённая функция отписки обязательна к вызову, иначе канал утечёт.
func (c *MemoryCache) Watch(key string) (<-chan json.RawMessage, func()) {
	ch := make(chan json.RawMessage, 16)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.watchers[key] == nil {
		c.watchers[key] = make(map[int]chan json.RawMessage)
	}
	c.watchers[key][id] = ch
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if subs, ok := c.watchers[key]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(c.watchers, key)
			}
		}
	}

	return ch, unsubscribe
}
