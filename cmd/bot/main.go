package main

import (
	"context"

	"go.uber.org/fx"

	"nur_bot/internal/modules/config"
	"nur_bot/internal/modules/engine"
	"nur_bot/internal/modules/executor"
	"nur_bot/internal/modules/feed"
	"nur_bot/internal/modules/health"
	"nur_bot/internal/modules/journal"
	"nur_bot/internal/notify"
	"nur_bot/internal/runner"
	"nur_bot/pkg/logger"
	"nur_bot/pkg/tracing"
)

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if err := logger.Init(cfg.Debug); err != nil {
				return err
			}
			logger.SetServiceName("nur_bot")
			tracing.SetServiceName("nur_bot")

			if cfg.Jaeger.Host != "" {
				_, closeTracer, err := tracing.InitTracer(tracing.Config{
					Host: cfg.Jaeger.Host,
					Port: cfg.Jaeger.Port,
				})
				if err != nil {
					return err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						closeTracer()
						return nil
					},
				})
			}
			return nil
		}),
		notify.Module(),
		health.Module(),
		feed.Module(),
		executor.Module(),
		journal.Module(),
		engine.Module(),
		runner.Module(),
	)

	app.Run()
}
