package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Ключи для хранения значений в контексте.
// Приватный тип исключает коллизии с другими пакетами.
type ctxKey string

const (
	// requestIDKey - ключ для хранения request_id в контексте.
	// Request ID присваивается каждой исходящей GraphQL операции
	// и позволяет сопоставить логи всех звеньев пайплайна.
	requestIDKey ctxKey = "request_id"

	// operationKey - ключ для хранения имени GraphQL операции.
	operationKey ctxKey = "operation"

	// loggerKey - ключ для хранения преднастроенного логгера.
	loggerKey ctxKey = "logger"
)

// WithRequestID добавляет request_id в контекст.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext извлекает request_id из контекста.
// Возвращает пустую строку, если request_id не установлен.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithOperation добавляет имя GraphQL операции в контекст.
// Устанавливается диспетчером перед запуском пайплайна.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext извлекает имя операции из контекста.
func OperationFromContext(ctx context.Context) string {
	if operation, ok := ctx.Value(operationKey).(string); ok {
		return operation
	}
	return ""
}

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста и автоматически добавляет
// request_id и operation, если они присутствуют.
//
// Если логгер не был явно добавлен, возвращает глобальный логгер.
// Это основной способ получения логгера в звеньях пайплайна.
//
// Пример:
//
//	func (l *HTTPLink) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
//	    log := logger.FromContext(ctx)
//	    log.Debug().Msg("Отправка GraphQL запроса")
//	    // ...
//	}
func FromContext(ctx context.Context) zerolog.Logger {
	var l zerolog.Logger
	if ctxLogger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = ctxLogger
	} else {
		l = log
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		l = l.With().Str("request_id", requestID).Logger()
	}
	if operation := OperationFromContext(ctx); operation != "" {
		l = l.With().Str("operation", operation).Logger()
	}

	return l
}

// Ctx возвращает указатель на zerolog.Logger из контекста,
// совместимо с zerolog.Ctx().
func Ctx(ctx context.Context) *zerolog.Logger {
	l := FromContext(ctx)
	return &l
}
