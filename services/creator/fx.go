package creator

import (
	"go.uber.org/fx"
)

var Module = fx.Module("creator.service",
	fx.Provide(NewService),
)
