// Package telemetry initializes error reporting (Sentry) and distributed
// tracing (OTLP over HTTP). Both are no-ops when unconfigured.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/folio-labs/folio/config"
)

// Init sets up Sentry and the OTel trace provider per config. The
// returned shutdown func flushes both; call it on exit.
func Init(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Env,
		})
		if err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.OTLPEndpoint != "" {
		exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.Tracing.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		))
		if err != nil {
			return nil, fmt.Errorf("init otlp exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
	}

	return func(ctx context.Context) error {
		sentry.Flush(2 * time.Second)
		if tp != nil {
			return tp.Shutdown(ctx)
		}
		return nil
	}, nil
}
