package service

import (
	"time"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
)

// Snapshot is the per-candle indicator output. EMA and ATR must not be
// consumed while Ready is false.
type Snapshot struct {
	EMA   float64
	ATR   float64
	Ready bool
}

// IndicatorEngine owns the rolling EMA200/ATR state. Candles must arrive
// strictly ordered at a fixed period; a gap resets both indicators and
// restarts warm-up instead of extrapolating over the hole.
type IndicatorEngine struct {
	period    time.Duration
	ema       emaState
	atr       atrState
	lastStart time.Time
}

func NewIndicatorEngine(emaPeriod, atrPeriod int, period time.Duration) *IndicatorEngine {
	return &IndicatorEngine{
		period: period,
		ema:    newEMA(emaPeriod),
		atr:    newATR(atrPeriod),
	}
}

// OnCandle advances the rolling state.
//
// ErrInvalidCandle: the candle is rejected, nothing advances.
// ErrDataGap: warm-up restarted, the candle seeds the new window; the
// returned snapshot is valid (not ready). Both are recoverable warnings.
func (e *IndicatorEngine) OnCandle(c models.Candle) (Snapshot, error) {
	if err := c.Validate(); err != nil {
		return e.snapshot(), err
	}

	var gapErr error
	if !e.lastStart.IsZero() {
		delta := c.Start.Sub(e.lastStart)
		if delta <= 0 {
			return e.snapshot(), errors.Wrapf(models.ErrInvalidCandle,
				"non-increasing timestamp %s (last %s)", c.Start, e.lastStart)
		}
		if delta != e.period {
			gapErr = errors.Wrapf(models.ErrDataGap,
				"expected %s got %s", e.lastStart.Add(e.period), c.Start)
			e.ema.Reset()
			e.atr.Reset()
		}
	}

	e.lastStart = c.Start
	e.ema.Update(c.Close)
	e.atr.Update(c)
	return e.snapshot(), gapErr
}

func (e *IndicatorEngine) Ready() bool {
	return e.ema.Ready() && e.atr.Ready()
}

func (e *IndicatorEngine) snapshot() Snapshot {
	return Snapshot{
		EMA:   e.ema.Value(),
		ATR:   e.atr.Value(),
		Ready: e.Ready(),
	}
}
