package service

import (
	"context"

	"nur_bot/internal/models"
)

// Source is an ordered stream of completed candles for one symbol and one
// timeframe. Implementations must close the channel when the stream ends
// and must only emit closed bars, oldest first.
type Source interface {
	Candles(ctx context.Context) <-chan models.Candle
}
