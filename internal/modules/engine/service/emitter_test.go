package service

import (
	"testing"
	"time"

	"nur_bot/internal/models"
)

func TestCommandIDDeterministic(t *testing.T) {
	em := Emitter{Symbol: "TEST-USD"}
	at := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	a := em.Command(1, models.ActionOpen, models.SideLong, at, 100, 98, 106)
	b := em.Command(1, models.ActionOpen, models.SideLong, at, 100, 98, 106)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("ids %q / %q, want identical", a.ID, b.ID)
	}
}

func TestCommandIDVariesPerDecision(t *testing.T) {
	em := Emitter{Symbol: "TEST-USD"}
	at := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	base := em.Command(1, models.ActionOpen, models.SideLong, at, 100, 98, 106)

	variants := []models.Command{
		em.Command(2, models.ActionOpen, models.SideLong, at, 100, 98, 106),
		em.Command(1, models.ActionClose, models.SideLong, at, 100, 98, 106),
		em.Command(1, models.ActionOpen, models.SideLong, at.Add(time.Minute), 100, 98, 106),
		Emitter{Symbol: "OTHER-USD"}.Command(1, models.ActionOpen, models.SideLong, at, 100, 98, 106),
	}
	for i, v := range variants {
		if v.ID == base.ID {
			t.Fatalf("variant %d collided with base id %q", i, base.ID)
		}
	}
}
