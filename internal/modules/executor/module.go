package executor

import (
	"go.uber.org/fx"

	"nur_bot/internal/modules/executor/service"
)

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			service.NewPaper,
			func(p *service.Paper) service.Executor { return p },
		),
	)
}
