// Package telemetry configures OpenTelemetry tracing for outbound provider calls.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/fitdesk/accessgate/internal/shared/config"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// Setup installs a global tracer provider exporting over OTLP/gRPC.
// Without an endpoint it is a no-op. The returned func flushes and shuts the provider down.
func Setup(cfg config.TelemetryConfig, log logger.Interface) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		log.Warnw("otel exporter unavailable, tracing disabled", "endpoint", cfg.OTLPEndpoint, "error", err)
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		log.Warnw("otel resource error", "error", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Infow("tracing enabled", "endpoint", cfg.OTLPEndpoint, "service_name", cfg.ServiceName)
	return provider.Shutdown
}
