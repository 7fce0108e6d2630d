package engine

import (
	"go.uber.org/fx"

	"nur_bot/internal/modules/engine/service"
	"nur_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(n notify.Notifier) service.ServiceNotifier { return n },
			service.NewEngine, // service.Engine
		),
	)
}
