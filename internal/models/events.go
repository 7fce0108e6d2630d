package models

import "time"

type TradeEventKind string

const (
	EventOpened   TradeEventKind = "opened"
	EventStopHit  TradeEventKind = "sl_hit"
	EventTPHit    TradeEventKind = "tp_hit"
	EventTrailHit TradeEventKind = "trail_hit"
	EventRejected TradeEventKind = "rejected"
)

// TradeEvent is feedback from the execution collaborator. Events carry the
// triggering candle's timestamp so they can be ordered into the candle
// stream, and an id so replays can be dropped.
type TradeEvent struct {
	ID        string
	Kind      TradeEventKind
	Symbol    string
	Price     float64
	At        time.Time
	CommandID string
}

// Exit reports whether the event closes an open position.
func (e TradeEvent) Exit() bool {
	switch e.Kind {
	case EventStopHit, EventTPHit, EventTrailHit:
		return true
	}
	return false
}
