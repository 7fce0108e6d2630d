package service

import (
	"fmt"
	"math"

	"nur_bot/internal/models"
)

// SignalDetector finds EMA200 crossovers and confirms continuation setups.
//
// A crossover only raises a pending signal. Confirmation then requires, in
// order: a run of trendBars consecutive closes on the new side, a pullback
// into the ATR-scaled band around the EMA, and a close beyond the local
// extreme in the trend direction. Only the final step emits a signal the
// risk gate will accept. A cross back discards the pending sequence; a new
// pending signal is raised only when the cross changes side.
type SignalDetector struct {
	symbol       string
	trendBars    int
	pullbackBand float64

	lastClose float64
	lastEMA   float64
	hasLast   bool

	trend        models.Side
	run          int
	established  bool
	pullbackSeen bool
	extreme      float64
}

func NewSignalDetector(symbol string, trendBars int, pullbackBand float64) *SignalDetector {
	return &SignalDetector{
		symbol:       symbol,
		trendBars:    trendBars,
		pullbackBand: pullbackBand,
	}
}

// Reset drops the crossover/trend state. Called after a data gap, when the
// last processed close no longer belongs to a contiguous series.
func (d *SignalDetector) Reset() {
	d.hasLast = false
	d.lastEMA = 0
	d.trend = models.SideNone
	d.run = 0
	d.established = false
	d.pullbackSeen = false
	d.extreme = 0
}

// Trend is the last confirmed trend side.
func (d *SignalDetector) Trend() models.Side { return d.trend }

// OnCandle consumes one closed candle with ready indicators.
func (d *SignalDetector) OnCandle(c models.Candle, ind Snapshot) (models.Signal, bool) {
	close, ema := c.Close, ind.EMA

	if !d.hasLast {
		d.lastClose = close
		d.lastEMA = ema
		d.hasLast = true
		return models.Signal{}, false
	}
	prev, prevEMA := d.lastClose, d.lastEMA
	d.lastClose = close
	d.lastEMA = ema

	// Each close is compared against the EMA of its own bar: in a trend the
	// EMA chases the closes, so measuring the previous close against the
	// current EMA would re-detect the same cross bar after bar.
	crossUp := prev <= prevEMA && close > ema
	crossDown := prev >= prevEMA && close < ema
	if (crossUp || crossDown) && d.trend != crossSide(crossDown) {
		side := crossSide(crossDown)
		d.trend = side
		d.run = 1
		d.established = d.trendBars <= 1
		d.pullbackSeen = false
		d.extreme = close
		return models.Signal{
			Symbol: d.symbol,
			Side:   side,
			Kind:   models.KindCrossoverPending,
			Price:  close,
			At:     c.Start,
			Reason: fmt.Sprintf("close %.5f crossed EMA200 %.5f", close, ema),
		}, true
	}

	if d.trend == models.SideNone {
		return models.Signal{}, false
	}

	onSide := (d.trend == models.SideLong && close > ema) ||
		(d.trend == models.SideShort && close < ema)
	if !onSide {
		// close ended exactly on the EMA: not a cross, but the run of
		// consecutive closes is broken
		d.run = 0
		return models.Signal{}, false
	}

	d.run++
	if !d.established {
		d.updateExtreme(close)
		if d.run >= d.trendBars {
			d.established = true
		}
		return models.Signal{}, false
	}

	// resumption: a close beyond the pre-pullback extreme
	if d.pullbackSeen && d.beyondExtreme(close) {
		d.pullbackSeen = false
		d.extreme = close
		return models.Signal{
			Symbol: d.symbol,
			Side:   d.trend,
			Kind:   models.KindContinuationConfirmed,
			Price:  close,
			At:     c.Start,
			Reason: fmt.Sprintf("%s continuation: pullback resumed past %.5f", d.trend, ema),
		}, true
	}

	if math.Abs(close-ema) <= ind.ATR*d.pullbackBand {
		d.pullbackSeen = true
		return models.Signal{}, false
	}

	if !d.pullbackSeen {
		d.updateExtreme(close)
	}
	return models.Signal{}, false
}

func crossSide(crossDown bool) models.Side {
	if crossDown {
		return models.SideShort
	}
	return models.SideLong
}

func (d *SignalDetector) beyondExtreme(close float64) bool {
	if d.trend == models.SideLong {
		return close > d.extreme
	}
	return close < d.extreme
}

func (d *SignalDetector) updateExtreme(close float64) {
	if d.beyondExtreme(close) {
		d.extreme = close
	}
}
