package runner

import (
	"context"

	"go.uber.org/fx"

	"nur_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			New, // *Runner
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner, ctx context.Context) {
			runCtx, cancel := context.WithCancel(ctx)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := r.Run(runCtx); err != nil {
							logger.Error("[RUNNER] stopped: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					// halt intake before the journal pool and health
					// server go away
					cancel()
					return nil
				},
			})
		}),
	)
}
