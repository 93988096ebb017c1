package auth

import (
	"context"
	"encoding/json"

	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/metrics"
)

// authHeaderScheme — схема Authorization заголовка Saleor.
const authHeaderScheme = "JWT "

// AttachToken возвращает middleware, подставляющее текущий токен
// в Authorization заголовок исходящей операции.
// Store только читается; при отсутствии токена заголовок не добавляется.
func AttachToken(store *TokenStore) graphql.Middleware {
	return func(next graphql.Link) graphql.Link {
		return graphql.LinkFunc(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
			if token, ok := store.Get(); ok {
				req.Header.Set("Authorization", authHeaderScheme+token)
			}
			return next.RoundTrip(ctx, req)
		})
	}
}

// Коды и сообщения, которыми Saleor сигнализирует о невалидном токене.
// Коды встречаются и в транспортных ошибках (extensions.exception.code),
// и в доменных ошибках мутаций (accountErrors[].code).
var (
	invalidTokenCodes = map[string]struct{}{
		"InvalidTokenError":     {},
		"InvalidSignatureError": {},
		"ExpiredSignatureError": {},
		"JWT_SIGNATURE_EXPIRED": {},
		"JWT_INVALID_TOKEN":     {},
		"JWT_DECODE_ERROR":      {},
		"JWT_MISSING_TOKEN":     {},
	}

	invalidTokenMessages = map[string]struct{}{
		"Signature has expired":    {},
		"Error decoding signature": {},
		"Invalid token":            {},
	}
)

// DetectInvalidToken возвращает middleware, инспектирующее входящие ответы
// на сигнал невалидного credential. При обнаружении токен очищается,
// и подписчики store получают authenticated=false (один раз на переход).
// Само выполнение запроса не прерывается: ответ возвращается вызывающему
// как есть, чтобы нормализатор отдал пользователю осмысленную ошибку.
func DetectInvalidToken(store *TokenStore) graphql.Middleware {
	return func(next graphql.Link) graphql.Link {
		return graphql.LinkFunc(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
			resp, err := next.RoundTrip(ctx, req)
			if err != nil {
				return nil, err
			}

			if hasInvalidTokenSignal(resp) {
				log := logger.FromContext(ctx)
				log.Warn().
					Str("operation", req.OperationName).
					Msg("Бэкенд сообщил о невалидном токене, очищаем credential")

				metrics.RecordAuthEvent("invalidated")

				if clearErr := store.Clear(); clearErr != nil {
					log.Error().Err(clearErr).
						Msg("Не удалось очистить невалидный токен")
				}
			}

			return resp, nil
		})
	}
}

// hasInvalidTokenSignal проверяет оба канала ошибок ответа.
func hasInvalidTokenSignal(resp *graphql.Response) bool {
	for _, gqlErr := range resp.Errors {
		if _, ok := invalidTokenMessages[gqlErr.Message]; ok {
			return true
		}
		if ext := gqlErr.Extensions; ext != nil {
			if code, ok := ext["code"].(string); ok {
				if _, bad := invalidTokenCodes[code]; bad {
					return true
				}
			}
			if exc, ok := ext["exception"].(map[string]any); ok {
				if code, ok := exc["code"].(string); ok {
					if _, bad := invalidTokenCodes[code]; bad {
						return true
					}
				}
			}
		}
	}

	if !resp.HasData() {
		return false
	}

	var decoded any
	if err := json.Unmarshal(resp.Data, &decoded); err != nil {
		return false
	}
	return scanForInvalidCodes(decoded)
}

// scanForInvalidCodes рекурсивно ищет объекты ошибок с кодом инвалидации
// внутри полезных данных (доменные ошибки мутаций).
func scanForInvalidCodes(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		if code, ok := val["code"].(string); ok {
			if _, bad := invalidTokenCodes[code]; bad {
				if _, hasMessage := val["message"]; hasMessage {
					return true
				}
			}
		}
		for _, child := range val {
			if scanForInvalidCodes(child) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if scanForInvalidCodes(item) {
				return true
			}
		}
	}
	return false
}
