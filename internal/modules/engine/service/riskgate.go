package service

import (
	"math"

	"nur_bot/internal/models"
	"nur_bot/internal/modules/config"
	"nur_bot/pkg/logger"
)

// RiskGate filters confirmed continuation signals. Rejections are logged,
// never surfaced as errors.
type RiskGate struct {
	cfg config.Strategy
}

func NewRiskGate(cfg config.Strategy) *RiskGate {
	return &RiskGate{cfg: cfg}
}

// Allow runs the checks in order: cooldown, ATR bounds, EMA proximity.
func (g *RiskGate) Allow(sig models.Signal, ind Snapshot, st models.TradeState) bool {
	if sig.Kind != models.KindContinuationConfirmed {
		return false
	}
	if !st.CooldownUntil.IsZero() && sig.At.Before(st.CooldownUntil) {
		logger.Debug("[GATE] %s: cooldown until %s, drop %s", sig.Symbol, st.CooldownUntil, sig.Side)
		return false
	}
	if ind.ATR < g.cfg.ATRMin || ind.ATR > g.cfg.ATRMax {
		logger.Debug("[GATE] %s: atr %.5f outside [%.5f, %.5f], drop %s",
			sig.Symbol, ind.ATR, g.cfg.ATRMin, g.cfg.ATRMax, sig.Side)
		return false
	}
	if math.Abs(sig.Price-ind.EMA) < g.cfg.MinEMADistance {
		logger.Debug("[GATE] %s: close %.5f within %.5f of EMA %.5f, drop %s",
			sig.Symbol, sig.Price, g.cfg.MinEMADistance, ind.EMA, sig.Side)
		return false
	}
	return true
}
