package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/internal/modules/config"
	"nur_bot/pkg/logger"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Engine is the decision core: candles in, commands out, feedback back in.
// Implementations are single-threaded; the runner owns the event ordering.
type Engine interface {
	OnCandle(ctx context.Context, c models.Candle) ([]models.Command, error)
	OnTradeEvent(ctx context.Context, ev models.TradeEvent) ([]models.Command, error)

	Ready() bool
	State() models.TradeState
	Dump() string
	Name() string
}

type ema200Engine struct {
	cfg *config.Config
	n   ServiceNotifier

	ind  *IndicatorEngine
	det  *SignalDetector
	gate *RiskGate
	em   Emitter
	p    Params

	st       models.TradeState
	seen     map[string]struct{} // processed feedback event ids
	wasReady bool
}

func NewEngine(cfg *config.Config, n ServiceNotifier) Engine {
	s := cfg.Strategy
	return &ema200Engine{
		cfg:  cfg,
		n:    n,
		ind:  NewIndicatorEngine(s.EMAPeriod, s.ATRPeriod, cfg.Period()),
		det:  NewSignalDetector(cfg.Symbol, s.TrendBars, s.PullbackBandATR),
		gate: NewRiskGate(s),
		em:   Emitter{Symbol: cfg.Symbol},
		p: Params{
			Period:          cfg.Period(),
			StopATR:         s.StopATR,
			TPATR:           s.TPATR,
			TrailATR:        s.TrailATR,
			CooldownCandles: s.CooldownCandles,
			SelfCheckExits:  true,
		},
		st:   models.NewTradeState(),
		seen: make(map[string]struct{}),
	}
}

func (e *ema200Engine) Name() string { return "ema200_pullback" }

func (e *ema200Engine) Ready() bool { return e.ind.Ready() }

func (e *ema200Engine) State() models.TradeState { return e.st }

func (e *ema200Engine) OnCandle(ctx context.Context, c models.Candle) ([]models.Command, error) {
	ind, err := e.ind.OnCandle(c)
	switch {
	case errors.Is(err, models.ErrInvalidCandle):
		// reject, nothing advanced
		logger.Warn("[ENGINE] %s: %v", c.Symbol, err)
		return nil, err
	case errors.Is(err, models.ErrDataGap):
		logger.Warn("[ENGINE] %s: %v, warm-up restarted", c.Symbol, err)
		e.det.Reset()
		if e.n != nil {
			e.n.SendService(ctx, "data gap on %s at %s, re-warming indicators", c.Symbol, c.Start)
		}
		e.wasReady = false
		// the bar still reaches the state machine: an open position must
		// resolve its SL/TP touches and a cooldown its expiry
	}

	if ind.Ready && !e.wasReady {
		e.wasReady = true
		logger.Info("[ENGINE] %s warm-up finished: ema=%.5f atr=%.5f", c.Symbol, ind.EMA, ind.ATR)
		if e.n != nil {
			e.n.SendService(ctx, "warm-up finished for %s: EMA200=%.5f ATR=%.5f", c.Symbol, ind.EMA, ind.ATR)
		}
	}

	ev := CandleEvent{Candle: c, Ind: ind}
	if ind.Ready {
		if sig, ok := e.det.OnCandle(c, ind); ok {
			logger.Info("[SIGNAL] %s %s %s @ %.5f (%s)", sig.Symbol, sig.Kind, sig.Side, sig.Price, sig.Reason)
			if e.st.Status == models.StatusWaiting && e.gate.Allow(sig, ind, e.st) {
				ev.Signal = &sig
			}
		}
	}

	st, cmds, err := Transition(e.st, Event{Candle: &ev}, e.em, e.p)
	if err != nil {
		return nil, err
	}
	if st.Status != e.st.Status {
		logger.Info("[STATE] %s: %s -> %s", c.Symbol, e.st.Status, st.Status)
		if st.Status == models.StatusWaiting {
			// trade cycle over, feedback ids for it can be forgotten
			e.seen = make(map[string]struct{})
		}
	}
	e.st = st
	return cmds, nil
}

func (e *ema200Engine) OnTradeEvent(ctx context.Context, t models.TradeEvent) ([]models.Command, error) {
	if t.ID != "" {
		if _, dup := e.seen[t.ID]; dup {
			logger.Debug("[ENGINE] duplicate feedback %s (%s), ignored", t.ID, t.Kind)
			return nil, nil
		}
		e.seen[t.ID] = struct{}{}
	}

	st, cmds, err := Transition(e.st, Event{Trade: &t}, e.em, e.p)
	if err != nil {
		return nil, err
	}
	if st.Status != e.st.Status {
		logger.Info("[STATE] %s: %s -> %s (%s)", t.Symbol, e.st.Status, st.Status, t.Kind)
	}
	e.st = st
	return cmds, nil
}

func (e *ema200Engine) Dump() string {
	snap := e.ind.snapshot()
	return fmt.Sprintf("ema=%.5f atr=%.5f ready=%v state=%s trend=%s",
		snap.EMA, snap.ATR, snap.Ready, e.st.Status, e.det.Trend())
}
