package depreciation

import (
	"go.uber.org/fx"

	"github.com/anzalajra/gearent/internal/depreciation/service"
)

var Module = fx.Module("depreciation.service",
	fx.Provide(service.NewService),
)
