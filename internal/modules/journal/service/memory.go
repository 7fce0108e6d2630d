package service

import (
	"context"
	"sync"

	"nur_bot/internal/models"
)

// Memory keeps the run's commands and events in RAM; the replay command
// uses it to print a summary after the stream ends.
type Memory struct {
	mu       sync.Mutex
	commands []models.Command
	events   []models.TradeEvent
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordCommand(_ context.Context, cmd models.Command) error {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()
	return nil
}

func (m *Memory) RecordEvent(_ context.Context, ev models.TradeEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Commands() []models.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// Summary aggregates completed trades: every OPEN paired with the exit that
// ended it (a CLOSE command or an exit feedback event, whichever came first).
type Summary struct {
	Trades    int
	Wins      int
	Losses    int
	NetPoints float64
}

func (m *Memory) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	type open struct {
		side  models.Side
		entry float64
	}
	opens := make(map[string]open) // open command id -> entry

	var s Summary

	settle := func(id string, exitPrice float64) {
		o, ok := opens[id]
		if !ok {
			return
		}
		delete(opens, id)

		pnl := exitPrice - o.entry
		if o.side == models.SideShort {
			pnl = -pnl
		}
		s.Trades++
		s.NetPoints += pnl
		if pnl >= 0 {
			s.Wins++
		} else {
			s.Losses++
		}
	}

	var lastOpenID string
	for _, cmd := range m.commands {
		switch cmd.Action {
		case models.ActionOpen:
			opens[cmd.ID] = open{side: cmd.Side, entry: cmd.Price}
			lastOpenID = cmd.ID
		case models.ActionClose:
			settle(lastOpenID, cmd.Price)
		}
	}
	for _, ev := range m.events {
		if ev.Exit() {
			settle(ev.CommandID, ev.Price)
		}
	}
	return s
}
