// Package observability wires structured logging and optional OTLP export.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/playdenlabs/playden/internal/config"
)

var Module = fx.Module("observability",
	fx.Provide(NewLogger),
	fx.Invoke(SetupOtel),
)

func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// SetupOtel installs OTLP HTTP trace and metric exporters when an endpoint
// is configured. Without an endpoint the global no-op providers stay in place.
func SetupOtel(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) {
	endpoint := cfg.Otel.Endpoint
	if endpoint == "" {
		return
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("playden"),
	))
	if err != nil {
		log.Warn("otel resource setup failed", zap.Error(err))
		return
	}

	var tp *sdktrace.TracerProvider
	var mp *sdkmetric.MeterProvider

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			traceExp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
			if err != nil {
				return err
			}
			tp = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(traceExp),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(tp)

			metricExp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
			if err != nil {
				return err
			}
			mp = sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
				sdkmetric.WithResource(res),
			)
			otel.SetMeterProvider(mp)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if mp != nil {
				_ = mp.Shutdown(ctx)
			}
			if tp != nil {
				return tp.Shutdown(ctx)
			}
			return nil
		},
	})
}
