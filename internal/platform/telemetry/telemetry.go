package telemetry

import (
	"context"
	"errors"

	"github.com/KelvCodes/real-time-chat-app/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ShutdownFunc is a helper to clean up all providers on app exit
type ShutdownFunc func(context.Context) error

// InitTelemetry installs the global tracer provider and propagator. Without
// an exporter address spans are still created (so trace ids propagate) but
// nothing is shipped.
func InitTelemetry(ctx context.Context, cfg config.Config) (ShutdownFunc, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.Service.Name),
			semconv.DeploymentEnvironmentKey.String(cfg.Service.Env),
		),
	)
	if err != nil {
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	var initErr error
	if cfg.Tracer != nil && cfg.Tracer.Address != "" {
		// Tracing (Tempo)
		traceExporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Tracer.Address),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			initErr = err
		} else {
			opts = append(opts, sdktrace.WithBatcher(traceExporter))
		}
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Return a combined shutdown function
	return func(shutdownCtx context.Context) error {
		var err error
		err = errors.Join(err, tp.Shutdown(shutdownCtx)) // Flush Traces
		return err
	}, initErr
}
