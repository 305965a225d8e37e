// Package telemetry は OpenTelemetry のトレースとログの送信を設定します。
// OTEL_EXPORTER_OTLP_ENDPOINT が設定されていない場合は何も送信しません。
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

type ShutdownFunc func(context.Context) error

// Enabled は OTLP の送信先が設定されているかを返します。
func Enabled() bool {
	return os.Getenv(EndpointEnv) != ""
}

// Setup はトレースプロバイダを登録し、base に加えて OTLP にもログを送る Logger を返します。
// 送信先が未設定なら base をそのまま使う Logger と何もしない ShutdownFunc を返します。
func Setup(ctx context.Context, service string, base slog.Handler) (*slog.Logger, ShutdownFunc, error) {
	if !Enabled() {
		return slog.New(base), func(context.Context) error { return nil }, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", service))

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logExporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, nil, errors.Join(err, tp.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	logger := slog.New(slog.NewMultiHandler(base, otelslog.NewHandler(service, otelslog.WithLoggerProvider(lp))))
	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
	}
	return logger, shutdown, nil
}
