// Package tracing предоставляет distributed tracing через OpenTelemetry + Jaeger.
//
// SDK создаёт client span на каждую GraphQL операцию (см. graphql.Tracing);
// trace_id передаётся бэкенду через W3C traceparent header.
//
// Использование:
//
//	shutdown, err := tracing.InitTracer(tracing.Config{...})
//	if err != nil { ... }
//	defer shutdown(context.Background())
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
)

// Config содержит настройки tracing.
type Config struct {
	ServiceName    string // Имя сервиса (отображается в Jaeger UI)
	JaegerEndpoint string // OTLP endpoint Jaeger (например "localhost:4317")
	Enabled        bool   // Включить tracing (false для тестов)
}

// ShutdownFunc — функция для graceful shutdown трейсера.
type ShutdownFunc func(ctx context.Context) error

// InitTracer инициализирует OpenTelemetry с Jaeger exporter.
// Возвращает shutdown функцию для graceful завершения.
func InitTracer(cfg Config) (ShutdownFunc, error) {
	log := logger.With().Str("service", cfg.ServiceName).Logger()

	// Если tracing отключен — возвращаем no-op shutdown
	if !cfg.Enabled || cfg.JaegerEndpoint == "" {
		log.Info().Msg("Tracing отключен")
		return func(ctx context.Context) error { return nil }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// gRPC соединение к Jaeger OTLP endpoint
	conn, err := grpc.NewClient(
		cfg.JaegerEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}

	// OTLP exporter — отправляет spans в Jaeger
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	// Resource описывает клиентское приложение в Jaeger UI
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	// BatchSpanProcessor отправляет spans пачками (эффективнее)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	// W3C TraceContext — стандартный формат передачи trace_id (header: traceparent)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("endpoint", cfg.JaegerEndpoint).
		Msg("Tracing инициализирован (Jaeger OTLP)")

	// Закрываем и TracerProvider, и gRPC соединение
	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Ошибка завершения TracerProvider")
		}
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия gRPC соединения к Jaeger")
			return err
		}
		return nil
	}, nil
}
