// Package metrics предоставляет Prometheus метрики для SDK.
// Содержит метрики GraphQL запросов (count, latency), кэша и событий
// аутентификации, плюс HTTP server для /metrics endpoint.
//
// Использование:
//
//	srv := metrics.NewServer(":9090", "storefront")
//	go srv.Start()
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

var (
	// GraphQLRequestsTotal — счётчик всех GraphQL операций.
	// PromQL пример: rate(graphql_requests_total{status="error"}[5m]) — частота ошибок
	GraphQLRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_requests_total",
			Help: "Общее количество GraphQL операций по имени и статусу",
		},
		[]string{"operation", "status"},
	)

	// GraphQLRequestDuration — гистограмма latency GraphQL операций.
	// PromQL пример: histogram_quantile(0.95, rate(graphql_request_duration_seconds_bucket[5m]))
	GraphQLRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "graphql_request_duration_seconds",
			Help: "Время выполнения GraphQL операции в секундах",
			// Buckets оптимизированы для сетевых вызовов: от 5ms до 10s
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// CacheLookupsTotal — счётчик обращений к кэшу ответов.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_cache_lookups_total",
			Help: "Обращения к кэшу ответов по результату (hit/miss)",
		},
		[]string{"result"},
	)

	// AuthEventsTotal — счётчик событий жизненного цикла токена.
	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "События аутентификации: signed_in, signed_out, invalidated",
		},
		[]string{"event"},
	)
)

// RecordRequest записывает метрики одной GraphQL операции.
// status — "success" или "error".
func RecordRequest(operation, status string, duration time.Duration) {
	GraphQLRequestsTotal.WithLabelValues(operation, status).Inc()
	GraphQLRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup записывает обращение к кэшу.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordAuthEvent записывает событие аутентификации.
func RecordAuthEvent(event string) {
	AuthEventsTotal.WithLabelValues(event).Inc()
}

// Server — HTTP сервер для экспорта метрик Prometheus.
type Server struct {
	httpServer *http.Server
	service    string
}

// NewServer создаёт новый metrics server.
// addr — адрес для прослушивания (например ":9090"),
// service — имя сервиса для логирования.
func NewServer(addr, service string) *Server {
	mux := http.NewServeMux()

	// /metrics — endpoint для Prometheus
	mux.Handle("/metrics", promhttp.Handler())

	// /healthz — liveness probe
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})

	return &Server{
		service: service,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start запускает HTTP сервер для метрик.
// Блокирующий вызов — запускать в горутине.
func (s *Server) Start() error {
	log := logger.With().Str("service", s.service).Logger()
	log.Info().Str("addr", s.httpServer.Addr).Msg("Запуск Metrics Server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
