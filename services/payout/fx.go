package payout

import (
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(NewService),
)

var SchedulerModule = fx.Module("payout.scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(StartScheduler),
)
