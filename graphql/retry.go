package graphql

import (
	"context"
	"time"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// RetrySettings — настройки повторов сетевых сбоев.
type RetrySettings struct {
	MaxAttempts  int           // Общее число попыток, включая первую (по умолчанию 3)
	InitialDelay time.Duration // Задержка перед вторым запросом (по умолчанию 300ms)
	MaxDelay     time.Duration // Потолок экспоненциальной задержки (по умолчанию 5s)
}

// DefaultRetrySettings возвращает настройки повторов по умолчанию.
func DefaultRetrySettings() RetrySettings {
	return RetrySettings{
		MaxAttempts:  3,
		InitialDelay: 300 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// Retry возвращает middleware, повторяющее операцию при транспортном сбое.
// Повторяются ТОЛЬКО сетевые ошибки (err != nil от нижнего звена):
// GraphQL ошибки в теле ответа — это ответ сервера, их повтор бессмыслен.
// Задержка растёт экспоненциально до MaxDelay; отмена контекста прерывает цикл.
func Retry(s RetrySettings) Middleware {
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 1
	}

	return func(next Link) Link {
		return LinkFunc(func(ctx context.Context, req *Request) (*Response, error) {
			log := logger.FromContext(ctx)

			delay := s.InitialDelay
			var lastErr error

			for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
				resp, err := next.RoundTrip(ctx, req)
				if err == nil {
					return resp, nil
				}
				lastErr = err

				if attempt == s.MaxAttempts {
					break
				}

				log.Warn().
					Err(err).
					Int("attempt", attempt).
					Dur("delay", delay).
					Msg("Сетевой сбой, повтор операции")

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}

				delay *= 2
				if delay > s.MaxDelay {
					delay = s.MaxDelay
				}
			}

			return nil, lastErr
		})
	}
}
