// Package tracing installs the OpenTelemetry pipeline for the server:
// an OTLP trace exporter when an endpoint is configured, a no-op provider
// otherwise, and the Echo request middleware.
package tracing

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"github.com/quillcms/quill/internal/config"
)

var Module = fx.Module("tracing",
	fx.Invoke(Register),
)

// skipPaths never produce request spans; health checks and scrapes fire
// every few seconds and would drown real traffic in the trace backend.
var skipPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/ready":   true,
	"/metrics": true,
}

// Register installs the global TracerProvider and the Echo middleware, and
// hooks provider shutdown into the fx lifecycle. With no OTLP endpoint
// configured it installs a no-op provider and skips the middleware.
func Register(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, log *slog.Logger) error {
	oc := cfg.Otel

	if !oc.Enabled() {
		log.Info("tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return nil
	}

	tp, err := newProvider(oc, log)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled",
		slog.String("endpoint", oc.ExporterEndpoint),
		slog.String("service", oc.ServiceName),
		slog.Float64("sampling_rate", oc.SamplingRate),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("flushing tracer provider")
			return tp.Shutdown(ctx)
		},
	})

	e.Use(otelecho.Middleware(
		oc.ServiceName,
		otelecho.WithSkipper(func(c echo.Context) bool {
			return skipPaths[c.Request().URL.Path]
		}),
	))
	return nil
}

func newProvider(oc config.OtelConfig, log *slog.Logger) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpointURL(oc.ExporterEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(oc.ServiceName),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
	)
	if err != nil {
		log.Warn("resource detection failed, continuing with an empty resource",
			slog.String("error", err.Error()))
		res = resource.Empty()
	}

	sampler := sdktrace.AlwaysSample()
	if oc.SamplingRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(oc.SamplingRate)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), nil
}
