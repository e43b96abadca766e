package journal

import (
	"go.uber.org/fx"

	"github.com/anzalajra/gearent/internal/events"
	"github.com/anzalajra/gearent/internal/journal/service"
)

var Module = fx.Module("journal.service",
	fx.Provide(events.NewOutbox),
	fx.Provide(service.NewService),
)
