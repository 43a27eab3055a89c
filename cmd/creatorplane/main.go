package main

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	asynqfx "liveshop-creatorplane/pkg/asynq"
	"liveshop-creatorplane/pkg/config"
	"liveshop-creatorplane/pkg/db"
	"liveshop-creatorplane/pkg/gen"
	"liveshop-creatorplane/pkg/health"
	"liveshop-creatorplane/pkg/logger"
	"liveshop-creatorplane/pkg/otelcol"
	"liveshop-creatorplane/pkg/otelcol/exporters"
	"liveshop-creatorplane/pkg/redis"
	"liveshop-creatorplane/pkg/server"
	"liveshop-creatorplane/services/creator"
	"liveshop-creatorplane/services/evaluation"
	"liveshop-creatorplane/services/httpapi"
	"liveshop-creatorplane/services/notification"
	"liveshop-creatorplane/services/payout"
	"liveshop-creatorplane/services/schedule"
	"liveshop-creatorplane/services/show"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynqfx.Client,
		gen.Module,
		fx.Provide(exporters.ProvideGrpc),
		fx.Invoke(setupTracing),
		health.Module,
		notification.Module,
		creator.Module,
		schedule.Module,
		show.Module,
		evaluation.Module,
		payout.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func setupTracing(lc fx.Lifecycle, exporter *otlptrace.Exporter) trace.TracerProvider {
	tp := otelcol.ProvideTrace(exporter)
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp
}
