package models

import "github.com/pkg/errors"

var (
	// ErrInvalidCandle: malformed OHLC or a non-increasing timestamp.
	// The candle is rejected and no rolling state advances.
	ErrInvalidCandle = errors.New("invalid candle")

	// ErrDataGap: one or more expected candles are missing. Indicators
	// reset and re-enter warm-up; missing bars are never fabricated.
	ErrDataGap = errors.New("data gap in candle stream")

	// ErrInvariant marks a broken upstream contract (e.g. a second OPEN
	// while a trade is already open). Callers must treat it as fatal.
	ErrInvariant = errors.New("trade state invariant violated")
)
