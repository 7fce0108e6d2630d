package runner

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
	enginesvc "nur_bot/internal/modules/engine/service"
	execsvc "nur_bot/internal/modules/executor/service"
	feedsvc "nur_bot/internal/modules/feed/service"
	healthsvc "nur_bot/internal/modules/health/service"
	journalsvc "nur_bot/internal/modules/journal/service"
	"nur_bot/internal/notify"
	"nur_bot/pkg/logger"
	"nur_bot/pkg/tracing"
)

// Runner is the single thread of control. Candle closes and execution
// feedback are merged into one ordered loop, each candle processed to
// completion before the next is accepted, so the engine and executor never
// race on trade state.
type Runner struct {
	eng    enginesvc.Engine
	src    feedsvc.Source
	exec   execsvc.Executor
	jrnl   journalsvc.Store
	n      notify.Notifier
	health *healthsvc.State
}

func New(
	eng enginesvc.Engine,
	src feedsvc.Source,
	exec execsvc.Executor,
	jrnl journalsvc.Store,
	n notify.Notifier,
	health *healthsvc.State,
) *Runner {
	return &Runner{
		eng:    eng,
		src:    src,
		exec:   exec,
		jrnl:   jrnl,
		n:      n,
		health: health,
	}
}

// Run blocks until the candle stream ends or ctx is cancelled. A stop
// request simply halts intake; there is no in-flight work to unwind.
func (r *Runner) Run(ctx context.Context) error {
	candles := r.src.Candles(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-r.exec.Events():
			if !ok {
				return nil
			}
			r.applyTradeEvent(ctx, ev)

		case c, ok := <-candles:
			if !ok {
				logger.Info("[RUNNER] candle stream finished")
				return nil
			}
			// feedback queued on earlier bars goes first
			r.drainEvents(ctx)
			for _, ev := range r.exec.OnCandle(c) {
				r.applyTradeEvent(ctx, ev)
			}
			r.onCandle(ctx, c)
		}
	}
}

func (r *Runner) drainEvents(ctx context.Context) {
	for {
		select {
		case ev := <-r.exec.Events():
			r.applyTradeEvent(ctx, ev)
		default:
			return
		}
	}
}

func (r *Runner) onCandle(ctx context.Context, c models.Candle) {
	r.health.SetLastCandle(c.Start)

	cmds, err := r.eng.OnCandle(ctx, c)
	switch {
	case errors.Is(err, models.ErrInvariant):
		logger.Fatal("[RUNNER] %v", err)
	case errors.Is(err, models.ErrInvalidCandle):
		return // rejected, already logged as a warning
	case err != nil:
		logger.Error("[RUNNER] candle %s: %v", c.Start, err)
		return
	}

	// readiness tracks the engine both ways: a data gap re-enters warm-up
	r.health.SetReady(r.eng.Ready())
	r.dispatch(ctx, cmds)
}

func (r *Runner) applyTradeEvent(ctx context.Context, ev models.TradeEvent) {
	if err := r.jrnl.RecordEvent(ctx, ev); err != nil {
		logger.Error("[RUNNER] journal event %s: %v", ev.ID, err)
	}

	cmds, err := r.eng.OnTradeEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, models.ErrInvariant) {
			logger.Fatal("[RUNNER] %v", err)
		}
		logger.Error("[RUNNER] trade event %s: %v", ev.ID, err)
		return
	}

	if ev.Exit() {
		r.n.SendService(ctx, "trade closed (%s) %s @ %.5f", ev.Kind, ev.Symbol, ev.Price)
	}
	r.dispatch(ctx, cmds)
}

func (r *Runner) dispatch(ctx context.Context, cmds []models.Command) {
	for _, cmd := range cmds {
		span, spanCtx := tracing.StartSpan(ctx, "command."+strings.ToLower(string(cmd.Action)))
		span.SetTag("command.id", cmd.ID)
		span.SetTag("symbol", cmd.Symbol)

		if err := r.jrnl.RecordCommand(spanCtx, cmd); err != nil {
			logger.Error("[RUNNER] journal command %s: %v", cmd.ID, err)
		}
		if err := r.exec.Execute(spanCtx, cmd); err != nil {
			logger.Error("[RUNNER] execute %s: %v", cmd.ID, err)
			r.n.SendService(spanCtx, "command %s failed: %v", cmd.ID, err)
			span.Finish()
			continue
		}

		switch cmd.Action {
		case models.ActionOpen:
			r.n.SendService(spanCtx, "OPEN %s %s @ %.5f sl=%.5f tp=%.5f",
				cmd.Side, cmd.Symbol, cmd.Price, cmd.StopLoss, cmd.TakeProfit)
		case models.ActionClose:
			r.n.SendService(spanCtx, "CLOSE %s %s @ %.5f", cmd.Side, cmd.Symbol, cmd.Price)
		}
		span.Finish()
	}
}
