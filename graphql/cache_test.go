package graphql

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache тестирует процессный кэш ответов.
func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("get после set", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set(ctx, "key", json.RawMessage(`{"a":1}`))

		data, ok := cache.Get(ctx, "key")
		assert.True(t, ok)
		assert.JSONEq(t, `{"a":1}`, string(data))
	})

	t.Run("промах на отсутствующем ключе", func(t *testing.T) {
		cache := NewMemoryCache()

		_, ok := cache.Get(ctx, "missing")
		assert.False(t, ok)
	})

	t.Run("invalidate удаляет запись", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set(ctx, "key", json.RawMessage(`{}`))

		cache.Invalidate(ctx, "key")

		_, ok := cache.Get(ctx, "key")
		assert.False(t, ok)
	})

	t.Run("clear удаляет все записи", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set(ctx, "a", json.RawMessage(`{}`))
		cache.Set(ctx, "b", json.RawMessage(`{}`))

		cache.Clear(ctx)

		_, okA := cache.Get(ctx, "a")
		_, okB := cache.Get(ctx, "b")
		assert.False(t, okA)
		assert.False(t, okB)
	})
}

// TestMemoryCache_Watch тестирует подписку на обновления ключа.
func TestMemoryCache_Watch(t *testing.T) {
	ctx := context.Background()

	waitUpdate := func(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
		t.Helper()
		select {
		case data := <-ch:
			return data
		case <-time.After(time.Second):
			t.Fatal("обновление не пришло")
			return nil
		}
	}

	t.Run("set уведомляет подписчика", func(t *testing.T) {
		cache := NewMemoryCache()
		ch, unsubscribe := cache.Watch("key")
		defer unsubscribe()

		cache.Set(ctx, "key", json.RawMessage(`{"v":1}`))

		assert.JSONEq(t, `{"v":1}`, string(waitUpdate(t, ch)))
	})

	t.Run("чужой ключ не уведомляет", func(t *testing.T) {
		cache := NewMemoryCache()
		ch, unsubscribe := cache.Watch("key")
		defer unsubscribe()

		cache.Set(ctx, "other", json.RawMessage(`{}`))

		select {
		case <-ch:
			t.Fatal("неожиданное уведомление")
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("после отписки уведомлений нет", func(t *testing.T) {
		cache := NewMemoryCache()
		ch, unsubscribe := cache.Watch("key")
		unsubscribe()

		cache.Set(ctx, "key", json.RawMessage(`{}`))

		select {
		case <-ch:
			t.Fatal("уведомление после отписки")
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("invalidate не уведомляет", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set(ctx, "key", json.RawMessage(`{}`))

		ch, unsubscribe := cache.Watch("key")
		defer unsubscribe()

		cache.Invalidate(ctx, "key")

		select {
		case <-ch:
			t.Fatal("уведомление при инвалидации")
		case <-time.After(20 * time.Millisecond):
		}
	})
}

// setupRedisCache поднимает miniredis и кэш поверх него.
func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, ttl), mr
}

// TestRedisCache тестирует кэш ответов в Redis.
func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("get после set", func(t *testing.T) {
		cache, _ := setupRedisCache(t, time.Minute)
		cache.Set(ctx, "key", json.RawMessage(`{"a":1}`))

		data, ok := cache.Get(ctx, "key")
		assert.True(t, ok)
		assert.JSONEq(t, `{"a":1}`, string(data))
	})

	t.Run("TTL истёк — промах", func(t *testing.T) {
		cache, mr := setupRedisCache(t, time.Minute)
		cache.Set(ctx, "key", json.RawMessage(`{}`))

		mr.FastForward(2 * time.Minute)

		_, ok := cache.Get(ctx, "key")
		assert.False(t, ok)
	})

	t.Run("clear удаляет только ключи кэша", func(t *testing.T) {
		cache, mr := setupRedisCache(t, time.Minute)
		cache.Set(ctx, "a", json.RawMessage(`{}`))
		cache.Set(ctx, "b", json.RawMessage(`{}`))
		require.NoError(t, mr.Set("saleor:auth:token", "T123"))

		cache.Clear(ctx)

		_, okA := cache.Get(ctx, "a")
		_, okB := cache.Get(ctx, "b")
		assert.False(t, okA)
		assert.False(t, okB)

		token, err := mr.Get("saleor:auth:token")
		require.NoError(t, err)
		assert.Equal(t, "T123", token)
	})

	t.Run("недоступный Redis — промах, не паника", func(t *testing.T) {
		cache, mr := setupRedisCache(t, time.Minute)
		mr.Close()

		_, ok := cache.Get(ctx, "key")
		assert.False(t, ok)
	})
}
