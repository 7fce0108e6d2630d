package models

import "time"

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusInTrade  Status = "IN_TRADE"
	StatusCooldown Status = "COOLDOWN"
)

// TradeState is the single trade lifecycle value. It is only ever mutated by
// the state machine's transition function, which takes it by value and
// returns the successor.
type TradeState struct {
	Status        Status
	Side          Side
	Entry         float64
	StopLoss      float64
	TakeProfit    float64
	OpenedAt      time.Time
	CooldownUntil time.Time

	// Seq counts opened trades; command ids are derived from it.
	Seq int
}

func NewTradeState() TradeState {
	return TradeState{Status: StatusWaiting}
}

type Action string

const (
	ActionOpen     Action = "OPEN"
	ActionModifySL Action = "MODIFY_SL"
	ActionClose    Action = "CLOSE"
)

// Command is a broker-facing order request. Immutable once issued; ID is
// deterministic so re-delivery shows up as a duplicate on the other side.
type Command struct {
	ID         string
	Action     Action
	Side       Side
	Symbol     string
	Price      float64
	StopLoss   float64
	TakeProfit float64
	At         time.Time
}
