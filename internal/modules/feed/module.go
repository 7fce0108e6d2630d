package feed

import (
	"go.uber.org/fx"

	"nur_bot/internal/modules/feed/service"
)

func Module() fx.Option {
	return fx.Module("feed",
		fx.Provide(
			service.NewOKXSource,
			func(s *service.OKXSource) service.Source { return s },
		),
	)
}
