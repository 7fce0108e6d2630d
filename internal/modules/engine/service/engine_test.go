package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/internal/modules/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Symbol:    "TEST-USD",
		Timeframe: "1m",
		Strategy: config.Strategy{
			EMAPeriod:       3,
			ATRPeriod:       2,
			TrendBars:       2,
			PullbackBandATR: 1.0,
			ATRMin:          0.1,
			ATRMax:          50,
			MinEMADistance:  0.05,
			StopATR:         1.0,
			TPATR:           3.0,
			TrailATR:        1.2,
			CooldownCandles: 3,
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// wickBar is a doji with a 0.5 wick on both sides.
func wickBar(i int, close float64) models.Candle {
	return bar(i, close, close+0.5, close-0.5, close)
}

// driveToOpen feeds the warm-up, crossover, trend run, pullback and
// resumption bars; the last candle opens a long at 103.
func driveToOpen(t *testing.T, eng Engine) []models.Command {
	t.Helper()
	ctx := context.Background()

	closes := []float64{100, 100, 100, 101, 102, 101.5}
	for i, c := range closes {
		cmds, err := eng.OnCandle(ctx, wickBar(i, c))
		if err != nil {
			t.Fatalf("candle %d: %v", i, err)
		}
		if len(cmds) != 0 {
			t.Fatalf("candle %d emitted %+v before confirmation", i, cmds)
		}
	}

	cmds, err := eng.OnCandle(ctx, wickBar(6, 103))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 || cmds[0].Action != models.ActionOpen {
		t.Fatalf("cmds = %+v, want one OPEN on the resumption bar", cmds)
	}
	return cmds
}

func TestEngineOpensOnConfirmedContinuation(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	cmds := driveToOpen(t, eng)

	open := cmds[0]
	if open.Side != models.SideLong || open.Price != 103 {
		t.Fatalf("open = %+v", open)
	}
	st := eng.State()
	if st.Status != models.StatusInTrade || st.Entry != 103 {
		t.Fatalf("state = %+v", st)
	}
	if !eng.Ready() {
		t.Fatal("engine not ready after warm-up")
	}
}

func TestEngineDuplicateCandleIsRejectedUnchanged(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	driveToOpen(t, eng)
	before := eng.State()

	cmds, err := eng.OnCandle(context.Background(), wickBar(6, 103))
	if !errors.Is(err, models.ErrInvalidCandle) {
		t.Fatalf("err = %v, want ErrInvalidCandle", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("duplicate candle emitted %+v", cmds)
	}
	if eng.State() != before {
		t.Fatalf("state changed: %+v -> %+v", before, eng.State())
	}
}

func TestEngineTradeCycleCommandIDsAreUnique(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	ctx := context.Background()
	ids := map[string]int{}

	record := func(i int, cmds []models.Command) {
		for _, cmd := range cmds {
			if prev, dup := ids[cmd.ID]; dup {
				t.Fatalf("command id %s reused on candles %d and %d", cmd.ID, prev, i)
			}
			ids[cmd.ID] = i
		}
	}

	record(6, driveToOpen(t, eng))

	// trail tightens the stop to ~101.9
	cmds, err := eng.OnCandle(ctx, wickBar(7, 104))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 || cmds[0].Action != models.ActionModifySL {
		t.Fatalf("cmds = %+v, want one MODIFY_SL", cmds)
	}
	record(7, cmds)

	// this bar trades through the stop
	cmds, err = eng.OnCandle(ctx, bar(8, 103.5, 103.6, 101.0, 101.2))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 || cmds[0].Action != models.ActionClose {
		t.Fatalf("cmds = %+v, want one CLOSE", cmds)
	}
	record(8, cmds)

	if st := eng.State(); st.Status != models.StatusCooldown {
		t.Fatalf("status = %s, want COOLDOWN", st.Status)
	}

	// cooldown is 3 candles; the bar at +3 flips back to WAITING
	for i := 9; i <= 11; i++ {
		cmds, err = eng.OnCandle(ctx, wickBar(i, 101))
		if err != nil {
			t.Fatalf("candle %d: %v", i, err)
		}
		record(i, cmds)
	}
	if st := eng.State(); st.Status != models.StatusWaiting {
		t.Fatalf("status = %s, want WAITING after cooldown", st.Status)
	}
}

func TestEngineNeverOpensSecondPositionInTrade(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	driveToOpen(t, eng)
	ctx := context.Background()

	// choppy bars raise fresh detector signals while the long is open; the
	// position guard must swallow all of them
	for i, c := range []float64{103.2, 102.6, 104.5} {
		cmds, err := eng.OnCandle(ctx, wickBar(7+i, c))
		if err != nil {
			t.Fatalf("candle %d: %v", 7+i, err)
		}
		for _, cmd := range cmds {
			if cmd.Action == models.ActionOpen {
				t.Fatalf("second OPEN while in trade: %+v", cmd)
			}
		}
	}
	if st := eng.State(); st.Status != models.StatusInTrade {
		t.Fatalf("status = %s, want IN_TRADE", st.Status)
	}
}

func TestEngineGapDropsReadiness(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	driveToOpen(t, eng)

	// candle 9 skips two bars
	cmds, err := eng.OnCandle(context.Background(), wickBar(9, 103))
	if err != nil {
		t.Fatalf("gap must be recoverable, got %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("cmds = %+v during re-warm-up", cmds)
	}
	if eng.Ready() {
		t.Fatal("still ready after a data gap")
	}
}

func TestEngineGapBarStillResolvesExits(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	driveToOpen(t, eng) // long at 103, stop 101.5

	// the bar after the gap trades through the stop
	cmds, err := eng.OnCandle(context.Background(), bar(9, 103, 103.1, 101.0, 101.2))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 || cmds[0].Action != models.ActionClose {
		t.Fatalf("cmds = %+v, want one CLOSE", cmds)
	}
	if st := eng.State(); st.Status != models.StatusCooldown {
		t.Fatalf("status = %s, want COOLDOWN", st.Status)
	}
	if eng.Ready() {
		t.Fatal("still ready after a data gap")
	}
}

func TestEngineDeduplicatesTradeFeedback(t *testing.T) {
	eng := NewEngine(testConfig(), nil)
	driveToOpen(t, eng)
	ctx := context.Background()

	fill := models.TradeEvent{ID: "f1", Kind: models.EventOpened, Symbol: "TEST-USD", Price: 103.2, At: t0.Add(6 * time.Minute)}
	if _, err := eng.OnTradeEvent(ctx, fill); err != nil {
		t.Fatal(err)
	}
	if eng.State().Entry != 103.2 {
		t.Fatalf("entry = %v, want broker fill", eng.State().Entry)
	}

	// redelivery with a corrupt price must be dropped on the id
	fill.Price = 999
	if _, err := eng.OnTradeEvent(ctx, fill); err != nil {
		t.Fatal(err)
	}
	if eng.State().Entry != 103.2 {
		t.Fatalf("entry = %v, duplicate feedback applied", eng.State().Entry)
	}
}
