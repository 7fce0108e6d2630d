package journal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"nur_bot/internal/modules/config"
	"nur_bot/internal/modules/journal/service"
	"nur_bot/pkg/db"
	"nur_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (service.Store, error) {
				if cfg.DB == "" {
					logger.Info("[JOURNAL] no DSN configured, journaling disabled")
					return service.Nop{}, nil
				}

				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, errors.Wrap(err, "failed to create journal pool")
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, errors.Wrap(err, "journal db unreachable")
				}

				tm := db.NewPgTxManager(pool)
				store := service.NewPgStore(tm)

				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return store.EnsureSchema(ctx)
					},
					OnStop: func(ctx context.Context) error {
						tm.Close()
						return nil
					},
				})
				return store, nil
			},
		),
	)
}
