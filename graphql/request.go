// Package graphql реализует транспортный пайплайн для GraphQL операций.
//
// Пайплайн — это цепочка звеньев (Link), каждое из которых может изменить
// исходящий запрос или проинспектировать ответ, завершающаяся отправкой
// по HTTP (HTTPLink или BatchLink). Порядок звеньев:
//
//	детектор невалидного токена → подстановка токена → tracing → metrics →
//	circuit breaker → retry → batch/HTTP отправка
//
// Ответ (Response) всегда несёт два канала ошибок: транспортные ошибки
// GraphQL уровня (Errors) и полезные данные (Data), внутри которых могут
// находиться доменные ошибки валидации. Их объединением занимается
// нормализатор пакета saleor.
package graphql

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Request — одно выполнение операции с конкретными переменными.
// Создаётся на каждый вызов, между вызовами не переиспользуется.
type Request struct {
	// Query — текст GraphQL документа (запрос или мутация).
	Query string `json:"query"`

	// OperationName — имя операции из каталога.
	OperationName string `json:"operationName,omitempty"`

	// Variables — переменные операции.
	Variables map[string]any `json:"variables,omitempty"`

	// Header — дополнительные HTTP заголовки исходящего запроса.
	// Сюда звено auth.AttachToken подставляет credential.
	Header http.Header `json:"-"`
}

// NewRequest создаёт запрос для операции с переменными.
func NewRequest(operationName, query string, variables map[string]any) *Request {
	return &Request{
		Query:         query,
		OperationName: operationName,
		Variables:     variables,
		Header:        http.Header{},
	}
}

// CacheKey возвращает стабильный ключ кэша: имя операции + hash переменных.
// json.Marshal сортирует ключи map, поэтому ключ детерминирован.
func (r *Request) CacheKey() string {
	raw, err := json.Marshal(r.Variables)
	if err != nil {
		// Переменные всегда сериализуемы (строятся из примитивов каталога),
		// но на всякий случай не роняем процесс.
		raw = []byte("{}")
	}
	sum := sha256.Sum256(raw)
	return r.OperationName + ":" + hex.EncodeToString(sum[:8])
}

// Response — прямой результат пайплайна: полезные данные плюс
// транспортные ошибки GraphQL уровня. Оба поля могут быть заполнены
// одновременно (частичный успех).
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors gqlerror.List   `json:"errors,omitempty"`
}

// HasData возвращает true, если полезные данные присутствуют и не null.
func (r *Response) HasData() bool {
	return r != nil && len(r.Data) > 0 && string(r.Data) != "null"
}

// FetchPolicy определяет взаимодействие наблюдаемого запроса с кэшем.
type FetchPolicy string

const (
	// CacheAndNetwork — сначала кэшированный результат (если есть),
	// затем свежий сетевой. Политика по умолчанию для watched queries.
	CacheAndNetwork FetchPolicy = "cache-and-network"

	// CacheFirst — кэшированный результат без похода в сеть;
	// сеть только при промахе кэша.
	CacheFirst FetchPolicy = "cache-first"

	// NetworkOnly — всегда свежий сетевой результат, кэш не читается.
	NetworkOnly FetchPolicy = "network-only"
)

// Options — настройки одного вызова (per-call options).
type Options struct {
	FetchPolicy FetchPolicy
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{FetchPolicy: CacheAndNetwork}
}
