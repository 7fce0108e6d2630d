package models

import (
	"time"

	"github.com/pkg/errors"
)

// Candle is one completed OHLCV bar. Immutable once emitted by a feed.
type Candle struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Start  time.Time
	End    time.Time
}

// Validate checks the bar for malformed OHLC. Timestamps are checked by the
// indicator engine, which knows the expected period.
func (c Candle) Validate() error {
	if c.Start.IsZero() {
		return errors.Wrap(ErrInvalidCandle, "zero timestamp")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.Wrap(ErrInvalidCandle, "non-positive price")
	}
	if c.Low > c.High {
		return errors.Wrap(ErrInvalidCandle, "low above high")
	}
	if c.Open > c.High || c.Open < c.Low || c.Close > c.High || c.Close < c.Low {
		return errors.Wrap(ErrInvalidCandle, "open/close outside range")
	}
	if c.Volume < 0 {
		return errors.Wrap(ErrInvalidCandle, "negative volume")
	}
	return nil
}
