package show

import (
	"go.uber.org/fx"
)

var Module = fx.Module("show.service",
	fx.Provide(NewService),
)
