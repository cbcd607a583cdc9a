package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// NewProvider builds a tracer provider exporting spans over OTLP/HTTP with
// batching. The exporter endpoint comes from the standard
// OTEL_EXPORTER_OTLP_* environment variables. The returned shutdown
// function flushes buffered spans; call it on process exit.
func NewProvider(ctx context.Context) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("sensor-gateway"),
		)),
	)

	otel.SetTracerProvider(provider)
	return provider, provider.Shutdown, nil
}
