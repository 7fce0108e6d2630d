package service

import (
	"math"

	"nur_bot/internal/models"
)

// atrState keeps a fixed-capacity ring of true-range values and a running
// sum, so each candle costs O(1) regardless of replay length.
type atrState struct {
	period    int
	ring      []float64
	head      int
	size      int
	sum       float64
	prevClose float64
	seeded    bool
}

func newATR(period int) atrState {
	if period < 1 {
		period = 1
	}
	return atrState{
		period: period,
		ring:   make([]float64, period),
	}
}

func (a *atrState) Update(c models.Candle) {
	if !a.seeded {
		// true range needs a previous close
		a.prevClose = c.Close
		a.seeded = true
		return
	}

	tr := math.Max(c.High-c.Low,
		math.Max(math.Abs(c.High-a.prevClose), math.Abs(c.Low-a.prevClose)))
	a.prevClose = c.Close

	if a.size == a.period {
		a.sum -= a.ring[a.head]
	} else {
		a.size++
	}
	a.ring[a.head] = tr
	a.sum += tr
	a.head = (a.head + 1) % a.period
}

func (a *atrState) Ready() bool { return a.size >= a.period }

func (a *atrState) Value() float64 {
	if a.size == 0 {
		return 0
	}
	return a.sum / float64(a.size)
}

func (a *atrState) Reset() {
	a.head = 0
	a.size = 0
	a.sum = 0
	a.prevClose = 0
	a.seeded = false
}
