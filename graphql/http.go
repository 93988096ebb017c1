package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// HTTPLink — терминальное звено: отправляет операцию одним HTTP POST.
type HTTPLink struct {
	endpoint  string
	client    *http.Client
	userAgent string
	headers   http.Header
}

// HTTPOption — функциональная опция для настройки HTTPLink.
type HTTPOption func(*HTTPLink)

// WithHTTPClient задаёт пользовательский http.Client
// (например с кастомным транспортом в тестах).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(l *HTTPLink) {
		l.client = client
	}
}

// WithTimeout задаёт таймаут HTTP запроса.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(l *HTTPLink) {
		l.client.Timeout = timeout
	}
}

// WithUserAgent задаёт User-Agent исходящих запросов.
func WithUserAgent(ua string) HTTPOption {
	return func(l *HTTPLink) {
		l.userAgent = ua
	}
}

// WithHeader добавляет постоянный заголовок ко всем запросам.
func WithHeader(key, value string) HTTPOption {
	return func(l *HTTPLink) {
		l.headers.Set(key, value)
	}
}

// NewHTTPLink создаёт терминальное HTTP звено для GraphQL endpoint.
func NewHTTPLink(endpoint string, opts ...HTTPOption) *HTTPLink {
	l := &HTTPLink{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "saleor-storefront-go",
		headers:   http.Header{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RoundTrip отправляет операцию и декодирует ответ {data, errors}.
// Транспортный сбой (сеть, недекодируемый ответ, 5xx без тела GraphQL)
// возвращается как error; GraphQL ошибки возвращаются внутри Response.
func (l *HTTPLink) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса %s: %w", req.OperationName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	l.prepareHeaders(httpReq, req)

	start := time.Now()
	httpResp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("сетевая ошибка операции %s: %w", req.OperationName, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа операции %s: %w", req.OperationName, err)
	}

	resp := &Response{}
	if err := json.Unmarshal(raw, resp); err != nil {
		// Тело не является GraphQL ответом — например HTML страница 502.
		return nil, fmt.Errorf("сервер вернул статус %d, тело не декодируется: %w",
			httpResp.StatusCode, err)
	}

	// GraphQL сервер может вернуть 400 с валидным телом errors —
	// это транспортные ошибки уровня протокола, не сетевой сбой.
	if httpResp.StatusCode >= 500 && len(resp.Errors) == 0 {
		return nil, fmt.Errorf("сервер вернул статус %d для операции %s",
			httpResp.StatusCode, req.OperationName)
	}

	log.Debug().
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("graphql_errors", len(resp.Errors)).
		Msg("GraphQL запрос выполнен")

	return resp, nil
}

// prepareHeaders переносит заголовки запроса и служебные заголовки
// в итоговый http.Request.
func (l *HTTPLink) prepareHeaders(httpReq *http.Request, req *Request) {
	for key, values := range l.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", l.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
}
