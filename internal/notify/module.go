package notify

import (
	"go.uber.org/fx"

	"nur_bot/internal/modules/config"
	"nur_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) (Notifier, error) {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					logger.Info("[NOTIFY] telegram not configured, logging to stdout")
					return NewStdout(), nil
				}
				return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
	)
}
