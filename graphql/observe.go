package graphql

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/metrics"
)

// tracerName — имя instrumentation scope в OpenTelemetry.
const tracerName = "github.com/CharlieCarsonKids/saleor-storefront/graphql"

// Tracing возвращает middleware, создающее client span на каждую операцию.
// Trace context передаётся бэкенду через W3C traceparent header,
// чтобы Jaeger показывал сквозную цепочку клиент → Saleor.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)

	return func(next Link) Link {
		return LinkFunc(func(ctx context.Context, req *Request) (*Response, error) {
			ctx, span := tracer.Start(ctx, "graphql:"+req.OperationName,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("graphql.operation.name", req.OperationName),
				),
			)
			defer span.End()

			// Прокидываем trace context в заголовки исходящего запроса.
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := next.RoundTrip(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(attribute.Int("graphql.errors.count", len(resp.Errors)))
			return resp, nil
		})
	}
}

// Metrics возвращает middleware, записывающее Prometheus метрики операции:
// счётчик по статусу и гистограмму latency.
func Metrics() Middleware {
	return func(next Link) Link {
		return LinkFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(ctx, req)

			status := "success"
			if err != nil || (resp != nil && len(resp.Errors) > 0) {
				status = "error"
			}
			metrics.RecordRequest(req.OperationName, status, time.Since(start))

			return resp, err
		})
	}
}
