package service

import (
	"context"

	"nur_bot/internal/models"
)

// Store records every issued command and every feedback event for manual
// review. Writes must be idempotent on id, since the runner may re-deliver.
type Store interface {
	RecordCommand(ctx context.Context, cmd models.Command) error
	RecordEvent(ctx context.Context, ev models.TradeEvent) error
}

// Nop is used when no journal DSN is configured.
type Nop struct{}

func (Nop) RecordCommand(context.Context, models.Command) error { return nil }
func (Nop) RecordEvent(context.Context, models.TradeEvent) error { return nil }
