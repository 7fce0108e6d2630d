package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"nur_bot/pkg/logger"
)

// Notifier delivers service messages (warm-up progress, opened/closed
// trades). Delivery is best-effort and never blocks the decision loop.
type Notifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Telegram is a passive notifier: outbound messages only.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot init")
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	go func() {
		if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
			logger.Error("[NOTIFY] telegram send: %v", err)
		}
	}()
}

// Stdout logs everything; used when no telegram token is configured and in
// replay runs.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) SendService(ctx context.Context, format string, args ...any) {
	logger.Info("[NOTIFY] "+format, args...)
}
