package models

import "time"

type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

type SignalKind string

const (
	// KindCrossoverPending: close crossed EMA200, entry not confirmed yet.
	KindCrossoverPending SignalKind = "CROSSOVER_PENDING"
	// KindContinuationConfirmed: trend run, pullback and resumption complete.
	// The only kind the risk gate will pass through.
	KindContinuationConfirmed SignalKind = "CONTINUATION_CONFIRMED"
)

// Signal is produced and consumed within a single candle-close step.
type Signal struct {
	Symbol string
	Side   Side
	Kind   SignalKind
	Price  float64
	At     time.Time
	Reason string
}
