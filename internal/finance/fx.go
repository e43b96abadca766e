package finance

import (
	"go.uber.org/fx"

	"github.com/anzalajra/gearent/internal/finance/service"
)

var Module = fx.Module("finance.service",
	fx.Provide(service.NewService),
)
