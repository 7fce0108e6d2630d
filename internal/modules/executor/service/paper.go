package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/pkg/logger"
)

type position struct {
	commandID  string
	side       models.Side
	entry      float64
	stopLoss   float64
	takeProfit float64
}

// Paper simulates the broker side: it fills OPEN commands at the command
// price, applies MODIFY_SL, and resolves SL/TP touches against each bar's
// extremes. When both levels are touched inside one bar the stop-loss wins
// (the conservative fill).
type Paper struct {
	mu     sync.Mutex
	pos    *position
	seen   map[string]struct{}
	events chan models.TradeEvent
}

func NewPaper() *Paper {
	return &Paper{
		seen:   make(map[string]struct{}),
		events: make(chan models.TradeEvent, 256),
	}
}

func (p *Paper) Events() <-chan models.TradeEvent { return p.events }

func (p *Paper) Execute(ctx context.Context, cmd models.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[cmd.ID]; dup {
		logger.Debug("[PAPER] duplicate command %s, ignored", cmd.ID)
		return nil
	}
	p.seen[cmd.ID] = struct{}{}

	switch cmd.Action {
	case models.ActionOpen:
		if p.pos != nil {
			return errors.Errorf("open %s rejected: position already held", cmd.ID)
		}
		p.pos = &position{
			commandID:  cmd.ID,
			side:       cmd.Side,
			entry:      cmd.Price,
			stopLoss:   cmd.StopLoss,
			takeProfit: cmd.TakeProfit,
		}
		p.emit(models.TradeEvent{
			ID:        cmd.ID + ":opened",
			Kind:      models.EventOpened,
			Symbol:    cmd.Symbol,
			Price:     cmd.Price,
			At:        cmd.At,
			CommandID: cmd.ID,
		})
		logger.Info("[PAPER] opened %s %s @ %.5f sl=%.5f tp=%.5f",
			cmd.Side, cmd.Symbol, cmd.Price, cmd.StopLoss, cmd.TakeProfit)

	case models.ActionModifySL:
		if p.pos == nil {
			logger.Warn("[PAPER] modify_sl %s with no position", cmd.ID)
			return nil
		}
		p.pos.stopLoss = cmd.StopLoss
		logger.Debug("[PAPER] sl moved to %.5f", cmd.StopLoss)

	case models.ActionClose:
		if p.pos == nil {
			logger.Debug("[PAPER] close %s with no position", cmd.ID)
			return nil
		}
		logger.Info("[PAPER] closed %s %s @ %.5f", p.pos.side, cmd.Symbol, cmd.Price)
		p.pos = nil
	}

	return nil
}

// OnCandle resolves SL/TP touches against one finished bar.
func (p *Paper) OnCandle(c models.Candle) []models.TradeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pos == nil {
		return nil
	}
	pos := p.pos

	var (
		kind  models.TradeEventKind
		price float64
	)
	if pos.side == models.SideLong {
		switch {
		case c.Low <= pos.stopLoss:
			kind, price = models.EventStopHit, pos.stopLoss
		case c.High >= pos.takeProfit:
			kind, price = models.EventTPHit, pos.takeProfit
		default:
			return nil
		}
	} else {
		switch {
		case c.High >= pos.stopLoss:
			kind, price = models.EventStopHit, pos.stopLoss
		case c.Low <= pos.takeProfit:
			kind, price = models.EventTPHit, pos.takeProfit
		}
		if kind == "" {
			return nil
		}
	}

	// trailing stop fills report as trail_hit
	if kind == models.EventStopHit && stopTightened(pos) {
		kind = models.EventTrailHit
	}

	p.pos = nil
	return []models.TradeEvent{{
		ID:        fmt.Sprintf("%s:%s:%d", pos.commandID, kind, c.Start.UnixMilli()),
		Kind:      kind,
		Symbol:    c.Symbol,
		Price:     price,
		At:        c.Start,
		CommandID: pos.commandID,
	}}
}

func (p *Paper) emit(ev models.TradeEvent) {
	select {
	case p.events <- ev:
	default:
		logger.Warn("[PAPER] events channel full, drop %s", ev.ID)
	}
}

func stopTightened(pos *position) bool {
	if pos.side == models.SideLong {
		return pos.stopLoss >= pos.entry
	}
	return pos.stopLoss <= pos.entry
}
