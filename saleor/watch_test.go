package saleor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharlieCarsonKids/saleor-storefront/auth"
	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
)

// watchRecorder собирает эмиссии наблюдаемого запроса в каналы,
// чтобы тест мог дождаться каждой из них.
type watchRecorder struct {
	updates   chan *Product
	errs      chan error
	completes chan struct{}
}

func newWatchRecorder() *watchRecorder {
	return &watchRecorder{
		updates:   make(chan *Product, 16),
		errs:      make(chan error, 16),
		completes: make(chan struct{}, 1),
	}
}

func (r *watchRecorder) callbacks() WatchCallbacks[*Product] {
	return WatchCallbacks[*Product]{
		OnUpdate:   func(p *Product) { r.updates <- p },
		OnError:    func(err error) { r.errs <- err },
		OnComplete: func() { r.completes <- struct{}{} },
	}
}

func (r *watchRecorder) waitUpdate(t *testing.T) *Product {
	t.Helper()
	select {
	case p := <-r.updates:
		return p
	case err := <-r.errs:
		t.Fatalf("вместо обновления пришла ошибка: %v", err)
		return nil
	case <-time.After(time.Second):
		t.Fatal("обновление не пришло")
		return nil
	}
}

func (r *watchRecorder) waitError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(time.Second):
		t.Fatal("ошибка не пришла")
		return nil
	}
}

func (r *watchRecorder) waitComplete(t *testing.T) {
	t.Helper()
	select {
	case <-r.completes:
	case <-time.After(time.Second):
		t.Fatal("OnComplete не вызван")
	}
}

func (r *watchRecorder) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case p := <-r.updates:
		t.Fatalf("неожиданное обновление: %+v", p)
	case err := <-r.errs:
		t.Fatalf("неожиданная ошибка: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

// productPipeline отвечает карточкой товара с именем из счётчика версий.
func productPipeline(calls *atomic.Int64) graphql.Link {
	return graphql.LinkFunc(func(_ context.Context, req *graphql.Request) (*graphql.Response, error) {
		n := calls.Add(1)
		id := req.Variables["id"]
		data := fmt.Sprintf(`{"product":{"id":%q,"name":"Чайник v%d"}}`, id, n)
		return &graphql.Response{Data: json.RawMessage(data)}, nil
	})
}

// productCacheKey возвращает ключ кэша операции ProductDetails.
func productCacheKey(id string) string {
	return graphql.NewRequest("ProductDetails", productDetailsQuery, map[string]any{"id": id}).CacheKey()
}

// TestWatch_NetworkEmission тестирует сетевую эмиссию и OnComplete.
func TestWatch_NetworkEmission(t *testing.T) {
	var calls atomic.Int64
	api, _ := newTestAPI(t, productPipeline(&calls))
	rec := newWatchRecorder()

	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	product := rec.waitUpdate(t)
	require.NotNil(t, product)
	assert.Equal(t, "Чайник v1", product.Name)

	rec.waitComplete(t)
}

// TestWatch_CachedFirst тестирует пару эмиссий кэш+сеть
// при политике по умолчанию.
func TestWatch_CachedFirst(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	cache.Set(context.Background(), productCacheKey("p1"),
		json.RawMessage(`{"product":{"id":"p1","name":"Чайник из кэша"}}`))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	first := rec.waitUpdate(t)
	assert.Equal(t, "Чайник из кэша", first.Name)

	second := rec.waitUpdate(t)
	assert.Equal(t, "Чайник v1", second.Name)

	rec.waitComplete(t)
}

// TestWatch_CacheFirstHitSkipsNetwork тестирует, что CacheFirst
// при попадании не ходит в сеть.
func TestWatch_CacheFirstHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	cache.Set(context.Background(), productCacheKey("p1"),
		json.RawMessage(`{"product":{"id":"p1","name":"Чайник из кэша"}}`))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks(),
		graphql.Options{FetchPolicy: graphql.CacheFirst})
	defer watcher.Stop()

	product := rec.waitUpdate(t)
	assert.Equal(t, "Чайник из кэша", product.Name)
	rec.waitComplete(t)

	rec.assertSilent(t)
	assert.Zero(t, calls.Load())
}

// TestWatch_CompleteAfterFirstEmission тестирует, что OnComplete приходит
// сразу после первой успешной эмиссии: при политике кэш+сеть — после
// кэшированного значения, не дожидаясь сетевого ответа.
func TestWatch_CompleteAfterFirstEmission(t *testing.T) {
	release := make(chan struct{})
	pipeline := graphql.LinkFunc(func(context.Context, *graphql.Request) (*graphql.Response, error) {
		<-release
		return &graphql.Response{Data: json.RawMessage(`{"product":{"id":"p1","name":"Чайник из сети"}}`)}, nil
	})

	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(pipeline, tokens, WithCache(cache))

	cache.Set(context.Background(), productCacheKey("p1"),
		json.RawMessage(`{"product":{"id":"p1","name":"Чайник из кэша"}}`))

	events := make(chan string, 16)
	next := func() string {
		select {
		case e := <-events:
			return e
		case <-time.After(time.Second):
			t.Fatal("эмиссия не пришла")
			return ""
		}
	}

	watcher := api.WatchProductDetails(context.Background(), "p1", WatchCallbacks[*Product]{
		OnUpdate:   func(p *Product) { events <- "update:" + p.Name },
		OnError:    func(err error) { events <- "error" },
		OnComplete: func() { events <- "complete" },
	})
	defer watcher.Stop()

	assert.Equal(t, "update:Чайник из кэша", next())
	assert.Equal(t, "complete", next())

	// Сетевой ответ приходит уже после завершения начальной загрузки.
	close(release)
	assert.Equal(t, "update:Чайник из сети", next())
}

// TestWatch_ReemitsOnCacheUpdate тестирует повторную эмиссию
// при обновлении ключа кэша другим запросом.
func TestWatch_ReemitsOnCacheUpdate(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	rec.waitUpdate(t)
	rec.waitComplete(t)

	// Другой потребитель обновил тот же ключ кэша.
	cache.Set(context.Background(), productCacheKey("p1"),
		json.RawMessage(`{"product":{"id":"p1","name":"Чайник обновлённый"}}`))

	product := rec.waitUpdate(t)
	assert.Equal(t, "Чайник обновлённый", product.Name)
}

// TestWatch_DeduplicatesIdenticalData тестирует подавление эмиссий
// с неизменившимися данными.
func TestWatch_DeduplicatesIdenticalData(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	rec.waitUpdate(t)
	rec.waitComplete(t)

	// Та же запись кэша с теми же байтами — эмиссии быть не должно.
	data, ok := cache.Get(context.Background(), productCacheKey("p1"))
	require.True(t, ok)
	cache.Set(context.Background(), productCacheKey("p1"), data)

	rec.assertSilent(t)
}

// TestWatch_ErrorKeepsSubscriptionAlive тестирует, что ошибка сети
// не убивает подписку.
func TestWatch_ErrorKeepsSubscriptionAlive(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	pipeline := graphql.LinkFunc(func(_ context.Context, req *graphql.Request) (*graphql.Response, error) {
		if fail.Load() {
			return nil, fmt.Errorf("connection refused")
		}
		return &graphql.Response{Data: json.RawMessage(`{"product":{"id":"p1","name":"Чайник"}}`)}, nil
	})
	api, _ := newTestAPI(t, pipeline)

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	err := rec.waitError(t)
	assert.Contains(t, err.Error(), "connection refused")

	// Сеть восстановилась — Refetch доставляет данные тем же наблюдателям.
	fail.Store(false)
	product, err := watcher.Refetch(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, product)

	emitted := rec.waitUpdate(t)
	assert.Equal(t, "Чайник", emitted.Name)
}

// TestWatch_Refetch тестирует повторный запрос с новыми переменными.
func TestWatch_Refetch(t *testing.T) {
	var calls atomic.Int64
	api, _ := newTestAPI(t, productPipeline(&calls))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	first := rec.waitUpdate(t)
	assert.Equal(t, "p1", first.ID)
	rec.waitComplete(t)

	product, err := watcher.Refetch(context.Background(), map[string]any{"id": "p2"})
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "p2", product.ID)

	emitted := rec.waitUpdate(t)
	assert.Equal(t, "p2", emitted.ID)
}

// TestWatch_RefetchEmitsCachedMatch тестирует Refetch с новыми переменными
// при наличии кэшированного совпадения: наблюдатели получают сначала
// кэшированное значение нового ключа, затем сетевое.
func TestWatch_RefetchEmitsCachedMatch(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	cache.Set(context.Background(), productCacheKey("p2"),
		json.RawMessage(`{"product":{"id":"p2","name":"Чайник p2 из кэша"}}`))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())
	defer watcher.Stop()

	first := rec.waitUpdate(t)
	assert.Equal(t, "p1", first.ID)
	rec.waitComplete(t)

	product, err := watcher.Refetch(context.Background(), map[string]any{"id": "p2"})
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "p2", product.ID)

	// Кэшированное совпадение эмитируется до сетевого значения.
	cached := rec.waitUpdate(t)
	assert.Equal(t, "Чайник p2 из кэша", cached.Name)

	network := rec.waitUpdate(t)
	assert.Equal(t, "p2", network.ID)
	assert.NotEqual(t, cached.Name, network.Name)
}

// TestWatch_Stop тестирует остановку подписки.
func TestWatch_Stop(t *testing.T) {
	var calls atomic.Int64
	cache := graphql.NewMemoryCache()
	tokens := auth.NewTokenStore(auth.NewMemoryStorage())
	api := New(productPipeline(&calls), tokens, WithCache(cache))

	rec := newWatchRecorder()
	watcher := api.WatchProductDetails(context.Background(), "p1", rec.callbacks())

	rec.waitUpdate(t)
	rec.waitComplete(t)

	watcher.Stop()
	assert.Equal(t, WatchStopped, watcher.State())

	cache.Set(context.Background(), productCacheKey("p1"),
		json.RawMessage(`{"product":{"id":"p1","name":"После остановки"}}`))

	rec.assertSilent(t)

	// Повторный Stop безопасен.
	watcher.Stop()
}
