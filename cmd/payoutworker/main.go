package main

import (
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	asynqfx "liveshop-creatorplane/pkg/asynq"
	"liveshop-creatorplane/pkg/config"
	"liveshop-creatorplane/pkg/db"
	"liveshop-creatorplane/pkg/gen"
	"liveshop-creatorplane/pkg/logger"
	"liveshop-creatorplane/pkg/redis"
	"liveshop-creatorplane/pkg/taskname"
	"liveshop-creatorplane/services/evaluation"
	"liveshop-creatorplane/services/notification"
	"liveshop-creatorplane/services/payout"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		asynqfx.Client,
		asynqfx.Server,
		notification.Module,
		evaluation.Module,
		payout.Module,
		payout.SchedulerModule,
		fx.Invoke(registerHandlers),
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

func registerHandlers(mux *asynq.ServeMux, payouts *payout.Service, evaluators *evaluation.Service) {
	mux.HandleFunc(taskname.PayoutRun, payouts.HandlePayoutRun)
	mux.HandleFunc(taskname.EvaluationTierRun, evaluators.HandleTierRun)
	mux.HandleFunc(taskname.EvaluationTrustRun, evaluators.HandleTrustRun)
	mux.HandleFunc(taskname.NotificationDispatch, notification.HandleDispatch)
}
