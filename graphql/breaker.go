package graphql

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// BreakerSettings — настройки Circuit Breaker транспортного пайплайна.
// Защищает приложение от каскадных сбоев при недоступности API:
// в состоянии Open операции отклоняются мгновенно, без ожидания таймаута.
type BreakerSettings struct {
	MaxRequests  uint32        // Макс. запросов в Half-Open состоянии (по умолчанию 1)
	Interval     time.Duration // Интервал сброса счётчика в Closed (по умолчанию 60s)
	Timeout      time.Duration // Время в Open до перехода в Half-Open (по умолчанию 30s)
	FailureRatio float64       // Доля ошибок для перехода в Open (по умолчанию 0.5)
	MinRequests  uint32        // Мин. запросов для расчёта ratio (по умолчанию 5)
}

// DefaultBreakerSettings возвращает настройки по умолчанию.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// CircuitBreaker возвращает middleware с Circuit Breaker вокруг нижних звеньев.
// Сбоем считается только транспортная ошибка; GraphQL ошибки в теле ответа
// не влияют на состояние breaker.
func CircuitBreaker(name string, s BreakerSettings) Middleware {
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		// Открываем breaker если доля ошибок >= FailureRatio
		// и накоплено >= MinRequests запросов.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},

		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log := logger.With().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Logger()

			switch to {
			case gobreaker.StateOpen:
				log.Warn().Msg("Circuit Breaker ОТКРЫТ — API недоступен")
			case gobreaker.StateHalfOpen:
				log.Info().Msg("Circuit Breaker ПОЛУОТКРЫТ — пробуем восстановить")
			case gobreaker.StateClosed:
				log.Info().Msg("Circuit Breaker ЗАКРЫТ — API восстановлен")
			}
		},
	})

	return func(next Link) Link {
		return LinkFunc(func(ctx context.Context, req *Request) (*Response, error) {
			return cb.Execute(func() (*Response, error) {
				return next.RoundTrip(ctx, req)
			})
		})
	}
}
