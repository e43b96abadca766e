package coa

import (
	"go.uber.org/fx"

	"github.com/anzalajra/gearent/internal/coa/repository"
	"github.com/anzalajra/gearent/internal/coa/service"
)

var Module = fx.Module("coa.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
