package service

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"nur_bot/internal/models"
)

// Emitter translates state-machine decisions into broker-facing commands.
// Ids are a pure function of (symbol, trade seq, action, candle timestamp),
// so a re-delivered decision carries the same id and the execution side can
// spot the duplicate.
type Emitter struct {
	Symbol string
}

func (e Emitter) Command(seq int, action models.Action, side models.Side, at time.Time, price, sl, tp float64) models.Command {
	return models.Command{
		ID:         e.commandID(seq, action, at),
		Action:     action,
		Side:       side,
		Symbol:     e.Symbol,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
		At:         at,
	}
}

func (e Emitter) commandID(seq int, action models.Action, at time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s|%d", e.Symbol, seq, action, at.UnixMilli())
	return fmt.Sprintf("%s-%d-%016x", strings.ToLower(string(action)), seq, h.Sum64())
}
