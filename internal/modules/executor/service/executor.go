package service

import (
	"context"

	"nur_bot/internal/models"
)

// Executor is the execution collaborator: it owns order placement and
// reports trade lifecycle events back. The core never retries delivery;
// it only needs the feedback stream to resume its state machine.
type Executor interface {
	// Execute places one command. Ids are deterministic, so an executor
	// can drop a command it has already seen.
	Execute(ctx context.Context, cmd models.Command) error

	// OnCandle lets bar-resolving executors (the paper simulator) settle
	// SL/TP touches against the finished bar. The returned events must be
	// applied before the same candle reaches the decision core.
	OnCandle(c models.Candle) []models.TradeEvent

	// Events is asynchronous broker feedback (fills, rejections).
	Events() <-chan models.TradeEvent
}
