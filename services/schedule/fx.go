package schedule

import (
	"go.uber.org/fx"
)

var Module = fx.Module("schedule.service",
	fx.Provide(NewService),
)
