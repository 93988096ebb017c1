package saleor

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// WatchState — состояние наблюдаемого запроса.
type WatchState string

const (
	// WatchActive — подписка живёт, фоновых запросов нет.
	WatchActive WatchState = "active"
	// WatchUpdating — выполняется сетевой запрос.
	WatchUpdating WatchState = "updating"
	// WatchStopped — подписка остановлена, эмиссий больше не будет.
	WatchStopped WatchState = "stopped"
)

// WatchCallbacks — наблюдатели жизненного цикла наблюдаемого запроса.
// Вызываются последовательно из одной горутины доставки: очередная
// эмиссия не начнётся, пока не вернулась предыдущая.
type WatchCallbacks[T any] struct {
	// OnUpdate получает каждое новое значение: кэшированное при старте,
	// затем сетевые результаты и обновления кэша.
	OnUpdate func(value T)

	// OnError получает ошибки сетевых запросов и нормализации.
	// Подписка после ошибки продолжает жить.
	OnError func(err error)

	// OnComplete вызывается один раз — сразу после первой успешной
	// эмиссии OnUpdate, кэшированной или сетевой.
	OnComplete func()
}

// Watcher — наблюдаемый запрос: эмитирует значение при старте (кэш),
// после сетевого ответа и при каждом обновлении соответствующего ключа
// кэша другими запросами. Повторные эмиссии с неизменившимися данными
// подавляются.
type Watcher[T any] struct {
	api     *API
	name    string
	query   string
	project Projection[T]
	cb      WatchCallbacks[T]

	mu        sync.Mutex
	variables map[string]any
	opts      graphql.Options
	state     WatchState
	gen       int
	lastRaw   json.RawMessage
	unsub     func()

	queue        chan emission[T]
	done         chan struct{}
	completeOnce sync.Once
}

type emission[T any] struct {
	value    T
	err      error
	complete bool
}

// Watch запускает наблюдаемый запрос над произвольной операцией каталога.
// Типизированные обёртки (WatchProductDetails и другие) предпочтительнее
// прямого вызова.
func Watch[T any](ctx context.Context, api *API, operationName, query string, variables map[string]any, project Projection[T], cb WatchCallbacks[T], opts ...graphql.Options) *Watcher[T] {
	w := &Watcher[T]{
		api:       api,
		name:      operationName,
		query:     query,
		project:   project,
		cb:        cb,
		variables: variables,
		opts:      callOptions(opts),
		state:     WatchActive,
		queue:     make(chan emission[T], 16),
		done:      make(chan struct{}),
	}

	go w.deliver()

	w.mu.Lock()
	gen := w.gen
	w.subscribeLocked()
	w.mu.Unlock()

	cachedHit := w.emitCached(ctx, gen)

	// CacheFirst при попадании в кэш не ходит в сеть.
	if w.opts.FetchPolicy == graphql.CacheFirst && cachedHit {
		return w
	}

	go func() {
		_, _ = w.fetch(ctx, gen)
	}()

	return w
}

// WatchUserDetails наблюдает за аккаунтом текущего пользователя.
func (a *API) WatchUserDetails(ctx context.Context, cb WatchCallbacks[*User], opts ...graphql.Options) *Watcher[*User] {
	return Watch(ctx, a, "UserDetails", userDetailsQuery, nil, Field[User]("me"), cb, opts...)
}

// WatchProductDetails наблюдает за карточкой товара.
func (a *API) WatchProductDetails(ctx context.Context, id string, cb WatchCallbacks[*Product], opts ...graphql.Options) *Watcher[*Product] {
	return Watch(ctx, a, "ProductDetails", productDetailsQuery, map[string]any{"id": id}, Field[Product]("product"), cb, opts...)
}

// WatchOrderDetails наблюдает за заказом.
func (a *API) WatchOrderDetails(ctx context.Context, token string, cb WatchCallbacks[*Order], opts ...graphql.Options) *Watcher[*Order] {
	return Watch(ctx, a, "OrderDetails", orderDetailsQuery, map[string]any{"token": token}, Field[Order]("orderByToken"), cb, opts...)
}

// State возвращает текущее состояние подписки.
func (w *Watcher[T]) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetOptions меняет политику кэширования для последующих Refetch.
func (w *Watcher[T]) SetOptions(opts graphql.Options) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts = opts
}

// Refetch повторяет запрос, опционально с новыми переменными (nil
// сохраняет текущие). Блокирует до получения сетевого результата
// и возвращает его; наблюдатели получают те же эмиссии, что и при
// обычном обновлении. Незавершённые предыдущие запросы не прерываются,
// их поздние результаты отбрасываются.
func (w *Watcher[T]) Refetch(ctx context.Context, variables map[string]any) (T, error) {
	var zero T

	w.mu.Lock()
	if w.state == WatchStopped {
		w.mu.Unlock()
		return zero, context.Canceled
	}
	w.gen++
	gen := w.gen
	if variables != nil {
		w.variables = variables
		w.lastRaw = nil
	}
	// Переподписка обязательна: форвардер кэша привязан к поколению.
	w.subscribeLocked()
	w.mu.Unlock()

	if w.opts.FetchPolicy != graphql.NetworkOnly {
		w.emitCached(ctx, gen)
	}

	return w.fetch(ctx, gen)
}

// Stop останавливает подписку. Запросы в полёте не прерываются,
// но их результаты отбрасываются; эмиссий после Stop не бывает.
func (w *Watcher[T]) Stop() {
	w.mu.Lock()
	if w.state == WatchStopped {
		w.mu.Unlock()
		return
	}
	w.state = WatchStopped
	w.gen++
	if w.unsub != nil {
		w.unsub()
		w.unsub = nil
	}
	w.mu.Unlock()

	close(w.done)
}

// request строит свежий запрос из текущих переменных.
func (w *Watcher[T]) request() (*graphql.Request, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	req := graphql.NewRequest(w.name, w.query, w.variables)
	return req, req.CacheKey()
}

// subscribeLocked переподписывается на обновления ключа кэша.
// Вызывается под w.mu; для кэша без поддержки подписки — no-op,
// тогда обновления приходят только от собственных запросов watcher.
func (w *Watcher[T]) subscribeLocked() {
	watchable, ok := w.api.cache.(graphql.WatchableCache)
	if !ok || w.api.cache == nil {
		return
	}

	if w.unsub != nil {
		w.unsub()
	}

	req := graphql.NewRequest(w.name, w.query, w.variables)
	ch, unsub := watchable.Watch(req.CacheKey())
	w.unsub = unsub
	gen := w.gen

	go func() {
		for {
			select {
			case raw := <-ch:
				w.emitRaw(gen, raw)
			case <-w.done:
				return
			}
		}
	}()
}

// emitCached эмитирует кэшированное значение, если оно есть.
func (w *Watcher[T]) emitCached(ctx context.Context, gen int) bool {
	if w.api.cache == nil || w.opts.FetchPolicy == graphql.NetworkOnly {
		return false
	}

	_, key := w.request()
	data, ok := w.api.cache.Get(ctx, key)
	if !ok {
		return false
	}
	w.emitRaw(gen, data)
	return true
}

// fetch выполняет сетевой запрос и доставляет результат наблюдателям.
func (w *Watcher[T]) fetch(ctx context.Context, gen int) (T, error) {
	var zero T

	w.mu.Lock()
	if w.state == WatchActive {
		w.state = WatchUpdating
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.state == WatchUpdating {
			w.state = WatchActive
		}
		w.mu.Unlock()
	}()

	req, key := w.request()

	resp, err := w.api.roundTrip(ctx, req)
	if err != nil {
		w.emitError(gen, err)
		return zero, err
	}

	out, err := Normalize(resp, w.project)
	if err != nil {
		w.emitError(gen, err)
		return zero, err
	}

	// Собственная эмиссия идёт напрямую, кэш обновляется следом:
	// подписка на кэш отбросит дубликат по сравнению данных.
	w.emitRaw(gen, resp.Data)
	if w.api.cache != nil && resp.HasData() && len(resp.Errors) == 0 {
		w.api.cache.Set(ctx, key, resp.Data)
	}

	return out, nil
}

// emitRaw проецирует сырые данные и ставит значение в очередь доставки.
// Повтор неизменившихся данных и результаты устаревших поколений
// отбрасываются.
func (w *Watcher[T]) emitRaw(gen int, raw json.RawMessage) {
	w.mu.Lock()
	if w.state == WatchStopped || gen != w.gen {
		w.mu.Unlock()
		return
	}
	if w.lastRaw != nil && bytes.Equal(w.lastRaw, raw) {
		w.mu.Unlock()
		return
	}
	w.lastRaw = append(json.RawMessage(nil), raw...)
	w.mu.Unlock()

	value, err := w.project(raw)
	if err != nil {
		logger.Warn().Err(err).Str("operation", w.name).
			Msg("Данные наблюдаемого запроса не декодируются")
		w.enqueue(emission[T]{err: err})
		return
	}
	w.enqueue(emission[T]{value: value})
	// Завершение начальной загрузки идёт следом за первой успешной
	// эмиссией; deliver доставит его ровно один раз.
	w.enqueue(emission[T]{complete: true})
}

// emitError ставит ошибку в очередь доставки.
func (w *Watcher[T]) emitError(gen int, err error) {
	w.mu.Lock()
	stale := w.state == WatchStopped || gen != w.gen
	w.mu.Unlock()
	if stale {
		return
	}
	w.enqueue(emission[T]{err: err})
}

// enqueue ставит эмиссию в очередь, если подписка ещё жива.
func (w *Watcher[T]) enqueue(e emission[T]) {
	select {
	case w.queue <- e:
	case <-w.done:
	}
}

// deliver — единственная горутина доставки: гарантирует порядок
// и отсутствие конкурентных вызовов наблюдателей.
func (w *Watcher[T]) deliver() {
	for {
		select {
		case e := <-w.queue:
			switch {
			case e.err != nil:
				if w.cb.OnError != nil {
					w.cb.OnError(e.err)
				}
			case e.complete:
				w.completeOnce.Do(func() {
					if w.cb.OnComplete != nil {
						w.cb.OnComplete()
					}
				})
			default:
				if w.cb.OnUpdate != nil {
					w.cb.OnUpdate(e.value)
				}
			}
		case <-w.done:
			return
		}
	}
}
