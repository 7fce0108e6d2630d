package service

import (
	"time"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
)

// Params are the fixed trade-management knobs the transition function needs.
type Params struct {
	Period          time.Duration
	StopATR         float64
	TPATR           float64
	TrailATR        float64
	CooldownCandles int

	// SelfCheckExits makes the state machine resolve SL/TP touches from
	// candle extremes itself, instead of waiting for the execution side
	// to report them. Stop-loss wins when both are touched in one bar.
	SelfCheckExits bool
}

// CandleEvent is a closed candle with its indicator snapshot and, when the
// detector and risk gate both agreed, an entry signal.
type CandleEvent struct {
	Candle models.Candle
	Ind    Snapshot
	Signal *models.Signal
}

// Event is exactly one of a candle close or an execution feedback event,
// serialized into a single ordered stream by the runner.
type Event struct {
	Candle *CandleEvent
	Trade  *models.TradeEvent
}

// Transition is the trade lifecycle: (state, event) -> (state, commands).
// It never mutates its input and performs no I/O, so any candle stream can
// be replayed deterministically. The only error it returns is a broken
// upstream contract, which callers must treat as fatal.
func Transition(st models.TradeState, ev Event, em Emitter, p Params) (models.TradeState, []models.Command, error) {
	switch {
	case ev.Candle != nil:
		return onCandle(st, *ev.Candle, em, p)
	case ev.Trade != nil:
		return onTradeEvent(st, *ev.Trade, p)
	}
	return st, nil, nil
}

func onCandle(st models.TradeState, ev CandleEvent, em Emitter, p Params) (models.TradeState, []models.Command, error) {
	c := ev.Candle

	if st.Status == models.StatusCooldown && !c.Start.Before(st.CooldownUntil) {
		st.Status = models.StatusWaiting
	}

	if ev.Signal != nil && st.Status != models.StatusWaiting {
		return st, nil, errors.Wrapf(models.ErrInvariant,
			"entry signal while %s", st.Status)
	}

	switch st.Status {
	case models.StatusWaiting:
		if ev.Signal == nil || !ev.Ind.Ready {
			return st, nil, nil
		}
		return open(st, ev, em, p)

	case models.StatusInTrade:
		if p.SelfCheckExits {
			if next, cmds, closed := selfCheckExit(st, c, em, p); closed {
				return next, cmds, nil
			}
		}
		return trail(st, ev, em, p)
	}

	return st, nil, nil
}

func open(st models.TradeState, ev CandleEvent, em Emitter, p Params) (models.TradeState, []models.Command, error) {
	entry := ev.Candle.Close
	dist := ev.Ind.ATR

	var sl, tp float64
	if ev.Signal.Side == models.SideLong {
		sl = entry - dist*p.StopATR
		tp = entry + dist*p.TPATR
	} else {
		sl = entry + dist*p.StopATR
		tp = entry - dist*p.TPATR
	}

	st.Status = models.StatusInTrade
	st.Side = ev.Signal.Side
	st.Entry = entry
	st.StopLoss = sl
	st.TakeProfit = tp
	st.OpenedAt = ev.Candle.Start
	st.Seq++

	cmd := em.Command(st.Seq, models.ActionOpen, st.Side, ev.Candle.Start, entry, sl, tp)
	return st, []models.Command{cmd}, nil
}

// trail recomputes the stop from the current ATR and applies it only when it
// tightens the position: non-decreasing for longs, non-increasing for shorts.
func trail(st models.TradeState, ev CandleEvent, em Emitter, p Params) (models.TradeState, []models.Command, error) {
	if !ev.Ind.Ready {
		// indicators are warming up again after a gap; hold the stop
		return st, nil, nil
	}

	c := ev.Candle
	var cand float64
	if st.Side == models.SideLong {
		cand = c.Close - ev.Ind.ATR*p.TrailATR
		if cand <= st.StopLoss {
			return st, nil, nil
		}
	} else {
		cand = c.Close + ev.Ind.ATR*p.TrailATR
		if cand >= st.StopLoss {
			return st, nil, nil
		}
	}

	st.StopLoss = cand
	cmd := em.Command(st.Seq, models.ActionModifySL, st.Side, c.Start, c.Close, cand, st.TakeProfit)
	return st, []models.Command{cmd}, nil
}

func selfCheckExit(st models.TradeState, c models.Candle, em Emitter, p Params) (models.TradeState, []models.Command, bool) {
	var exit float64
	if st.Side == models.SideLong {
		switch {
		case c.Low <= st.StopLoss:
			exit = st.StopLoss
		case c.High >= st.TakeProfit:
			exit = st.TakeProfit
		default:
			return st, nil, false
		}
	} else {
		switch {
		case c.High >= st.StopLoss:
			exit = st.StopLoss
		case c.Low <= st.TakeProfit:
			exit = st.TakeProfit
		default:
			return st, nil, false
		}
	}

	cmd := em.Command(st.Seq, models.ActionClose, st.Side, c.Start, exit, st.StopLoss, st.TakeProfit)
	st = enterCooldown(st, c.Start, p)
	return st, []models.Command{cmd}, true
}

func onTradeEvent(st models.TradeState, ev models.TradeEvent, p Params) (models.TradeState, []models.Command, error) {
	if st.Status != models.StatusInTrade {
		// late or repeated feedback for a trade already resolved
		return st, nil, nil
	}

	switch {
	case ev.Kind == models.EventOpened:
		if ev.Price > 0 {
			st.Entry = ev.Price
		}
		return st, nil, nil

	case ev.Exit():
		// already closed on the execution side, no CLOSE command needed
		return enterCooldown(st, ev.At, p), nil, nil

	case ev.Kind == models.EventRejected:
		// nothing was opened: conservative transition, no cooldown
		st.Status = models.StatusWaiting
		st.Side = models.SideNone
		st.Entry = 0
		st.StopLoss = 0
		st.TakeProfit = 0
		return st, nil, nil
	}

	return st, nil, nil
}

func enterCooldown(st models.TradeState, at time.Time, p Params) models.TradeState {
	st.Status = models.StatusCooldown
	st.CooldownUntil = at.Add(time.Duration(p.CooldownCandles) * p.Period)
	st.Side = models.SideNone
	st.Entry = 0
	st.StopLoss = 0
	st.TakeProfit = 0
	return st
}
