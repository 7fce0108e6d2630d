package service

import (
	"testing"

	"nur_bot/internal/models"
)

// snap fixes the indicator output so detector paths can be driven by closes
// alone.
func snap(ema, atr float64) Snapshot {
	return Snapshot{EMA: ema, ATR: atr, Ready: true}
}

func feedCloses(d *SignalDetector, ind Snapshot, closes ...float64) []models.Signal {
	var out []models.Signal
	for i, c := range closes {
		if sig, ok := d.OnCandle(flatCandle(i, c), ind); ok {
			out = append(out, sig)
		}
	}
	return out
}

func TestDetectorOnePendingPerCrossover(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 3, 0.25)
	ind := snap(100, 2)

	sigs := feedCloses(d, ind, 99, 101, 99, 101)

	if len(sigs) != 3 {
		t.Fatalf("got %d signals, want 3", len(sigs))
	}
	wantSides := []models.Side{models.SideLong, models.SideShort, models.SideLong}
	for i, s := range sigs {
		if s.Kind != models.KindCrossoverPending {
			t.Fatalf("signal %d kind = %s, want crossover pending", i, s.Kind)
		}
		if s.Side != wantSides[i] {
			t.Fatalf("signal %d side = %s, want %s", i, s.Side, wantSides[i])
		}
	}
}

func TestDetectorContinuationAfterPullback(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2) // pullback band: 0.5 around the EMA

	// cross, two closes on side establish the trend, extreme reaches 103,
	// 100.3 is inside the band, 103.5 resumes past the extreme
	sigs := feedCloses(d, ind, 99, 101, 102, 103, 100.3, 103.5)

	if len(sigs) != 2 {
		t.Fatalf("got %d signals, want pending + confirmed", len(sigs))
	}
	conf := sigs[1]
	if conf.Kind != models.KindContinuationConfirmed {
		t.Fatalf("kind = %s, want continuation confirmed", conf.Kind)
	}
	if conf.Side != models.SideLong || conf.Price != 103.5 {
		t.Fatalf("confirmed = %+v", conf)
	}
}

func TestDetectorNoConfirmationWithoutPullback(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2)

	// trend runs away without ever touching the band
	sigs := feedCloses(d, ind, 99, 101, 102, 103, 104, 105)

	for _, s := range sigs {
		if s.Kind == models.KindContinuationConfirmed {
			t.Fatalf("confirmed without a pullback: %+v", s)
		}
	}
}

func TestDetectorCrossBackDiscardsPending(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2)

	// long setup reaches the pullback stage, then price crosses back down
	sigs := feedCloses(d, ind, 99, 101, 102, 100.3, 99, 103.5)

	for _, s := range sigs {
		if s.Kind == models.KindContinuationConfirmed {
			t.Fatalf("stale pullback survived a cross back: %+v", s)
		}
	}
	// 103.5 re-crossed up, so the live trend is long again with a fresh run
	if d.Trend() != models.SideLong {
		t.Fatalf("trend = %s, want fresh long pending", d.Trend())
	}
}

func TestDetectorShortContinuation(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2)

	sigs := feedCloses(d, ind, 101, 99, 98, 97, 99.7, 96.5)

	if len(sigs) != 2 {
		t.Fatalf("got %d signals, want pending + confirmed", len(sigs))
	}
	conf := sigs[1]
	if conf.Kind != models.KindContinuationConfirmed || conf.Side != models.SideShort {
		t.Fatalf("confirmed = %+v", conf)
	}
}

// The EMA chases the closes in a trend and overtakes the prior close between
// bars; that must not read as a fresh crossover.
func TestDetectorTrendingEMARaisesOnePending(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 1.0)

	steps := []struct{ close, ema, atr float64 }{
		{100, 100, 1},          // seeds the last close
		{101, 100.5, 1.25},     // crosses up
		{102, 101.25, 1.5},     // ema now above the prior close
		{101.5, 101.375, 1.25}, // pullback into the band
		{103, 102.1875, 1.5},   // resumption past the extreme
	}
	var sigs []models.Signal
	for i, s := range steps {
		if sig, ok := d.OnCandle(flatCandle(i, s.close), snap(s.ema, s.atr)); ok {
			sigs = append(sigs, sig)
		}
	}

	if len(sigs) != 2 {
		t.Fatalf("got %d signals %+v, want pending + confirmed", len(sigs), sigs)
	}
	if sigs[0].Kind != models.KindCrossoverPending {
		t.Fatalf("first = %+v", sigs[0])
	}
	if sigs[1].Kind != models.KindContinuationConfirmed || sigs[1].Price != 103 {
		t.Fatalf("second = %+v", sigs[1])
	}
}

func TestDetectorSameSideRecrossDoesNotRearm(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2)

	// 100 closes exactly on the EMA (run broken, no cross), 101 re-crosses
	// on the side already held
	sigs := feedCloses(d, ind, 99, 101, 102, 100, 101)

	if len(sigs) != 1 || sigs[0].Kind != models.KindCrossoverPending {
		t.Fatalf("signals = %+v, want the single original pending", sigs)
	}
	if d.Trend() != models.SideLong {
		t.Fatalf("trend = %s, want long", d.Trend())
	}
}

func TestDetectorResetDropsTrend(t *testing.T) {
	d := NewSignalDetector("TEST-USD", 2, 0.25)
	ind := snap(100, 2)

	feedCloses(d, ind, 99, 101, 102)
	d.Reset()

	if d.Trend() != models.SideNone {
		t.Fatalf("trend = %s after reset", d.Trend())
	}
	// first candle after a reset only re-seeds the last close
	if _, ok := d.OnCandle(flatCandle(10, 105), ind); ok {
		t.Fatal("signal on the seeding candle after reset")
	}
}
