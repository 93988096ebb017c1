package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// ErrBatchClosed возвращается операциям, поступившим после Close().
var ErrBatchClosed = errors.New("batch звено закрыто")

// BatchLink — терминальное звено с объединением операций.
// Операции, поступившие в течение окна interval, отправляются одним
// HTTP POST в виде JSON массива; ответы распределяются по индексам.
// Соответствует batch-режиму GraphQL серверов (Apollo batch формат).
type BatchLink struct {
	endpoint  string
	client    *http.Client
	userAgent string
	interval  time.Duration
	maxSize   int

	queue chan *batchItem
	stop  chan struct{}

	mu     sync.Mutex
	closed bool
}

type batchItem struct {
	ctx    context.Context
	req    *Request
	result chan batchResult
}

type batchResult struct {
	resp *Response
	err  error
}

// BatchOption — функциональная опция для настройки BatchLink.
type BatchOption func(*BatchLink)

// WithBatchInterval задаёт окно сбора операций в один batch.
func WithBatchInterval(interval time.Duration) BatchOption {
	return func(l *BatchLink) {
		l.interval = interval
	}
}

// WithBatchMax задаёт максимальное число операций в одном batch.
func WithBatchMax(max int) BatchOption {
	return func(l *BatchLink) {
		l.maxSize = max
	}
}

// WithBatchHTTPClient задаёт пользовательский http.Client.
func WithBatchHTTPClient(client *http.Client) BatchOption {
	return func(l *BatchLink) {
		l.client = client
	}
}

// NewBatchLink создаёт batch звено и запускает диспетчер.
// После использования звено нужно закрыть через Close().
func NewBatchLink(endpoint string, opts ...BatchOption) *BatchLink {
	l := &BatchLink{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "saleor-storefront-go",
		interval:  10 * time.Millisecond,
		maxSize:   10,
		queue:     make(chan *batchItem, 64),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.dispatch()

	return l
}

// RoundTrip ставит операцию в очередь batch диспетчера и ждёт её результата.
func (l *BatchLink) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	item := &batchItem{
		ctx:    ctx,
		req:    req,
		result: make(chan batchResult, 1),
	}

	// Постановка в очередь сериализуется с Close() через мьютекс:
	// операция либо отклоняется здесь, либо гарантированно получает
	// ответ от диспетчера или drain.
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrBatchClosed
	}
	select {
	case l.queue <- item:
	case <-ctx.Done():
		l.mu.Unlock()
		return nil, ctx.Err()
	}
	l.mu.Unlock()

	select {
	case res := <-item.result:
		return res.resp, res.err
	case <-ctx.Done():
		// Запрос уйдёт в сеть в составе batch, но результат будет отброшен.
		return nil, ctx.Err()
	}
}

// Close останавливает диспетчер. Новые операции отклоняются,
// операции, находящиеся в очереди, получают ошибку закрытия.
// Повторный вызов безопасен.
func (l *BatchLink) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	close(l.stop)
}

// dispatch собирает операции в batch: первая операция открывает окно,
// окно закрывается по таймеру interval или при достижении maxSize.
func (l *BatchLink) dispatch() {
	for {
		var first *batchItem
		select {
		case first = <-l.queue:
		case <-l.stop:
			l.drain()
			return
		}

		batch := []*batchItem{first}
		timer := time.NewTimer(l.interval)

	collect:
		for len(batch) < l.maxSize {
			select {
			case item := <-l.queue:
				batch = append(batch, item)
			case <-timer.C:
				break collect
			case <-l.stop:
				break collect
			}
		}
		timer.Stop()

		// Отправляем пачку асинхронно, чтобы не задерживать следующее окно.
		go l.flush(batch)
	}
}

// drain отвечает ошибкой всем операциям, оставшимся в очереди при закрытии.
func (l *BatchLink) drain() {
	for {
		select {
		case item := <-l.queue:
			item.result <- batchResult{err: ErrBatchClosed}
		default:
			return
		}
	}
}

// flush отправляет пачку операций одним HTTP запросом
// и распределяет ответы по индексам.
func (l *BatchLink) flush(batch []*batchItem) {
	// Операции с отменённым контекстом не отправляем.
	active := batch[:0]
	for _, item := range batch {
		if err := item.ctx.Err(); err != nil {
			item.result <- batchResult{err: err}
			continue
		}
		active = append(active, item)
	}
	if len(active) == 0 {
		return
	}

	log := logger.FromContext(active[0].ctx)

	requests := make([]*Request, len(active))
	for i, item := range active {
		requests[i] = item.req
	}

	responses, err := l.send(active[0].ctx, requests)
	if err != nil {
		for _, item := range active {
			item.result <- batchResult{err: err}
		}
		return
	}

	log.Debug().Int("batch_size", len(active)).Msg("Batch запрос выполнен")

	for i, item := range active {
		item.result <- batchResult{resp: responses[i]}
	}
}

// send выполняет HTTP POST массива операций и декодирует массив ответов.
func (l *BatchLink) send(ctx context.Context, requests []*Request) ([]*Response, error) {
	body, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации batch запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	// Заголовки операций объединяются: токен один на все операции batch.
	for _, req := range requests {
		for key, values := range req.Header {
			for _, v := range values {
				httpReq.Header.Set(key, v)
			}
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", l.userAgent)

	httpResp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("сетевая ошибка batch запроса: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения batch ответа: %w", err)
	}

	var responses []*Response
	if err := json.Unmarshal(raw, &responses); err != nil {
		return nil, fmt.Errorf("сервер вернул статус %d, batch тело не декодируется: %w",
			httpResp.StatusCode, err)
	}

	if len(responses) != len(requests) {
		return nil, fmt.Errorf("batch ответ содержит %d элементов вместо %d",
			len(responses), len(requests))
	}

	return responses, nil
}
