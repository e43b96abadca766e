package audit

import (
	"github.com/anzalajra/gearent/internal/audit/repository"
	"github.com/anzalajra/gearent/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
