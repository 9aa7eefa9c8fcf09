package risk

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const DefaultStopPct = 0.02

var (
	ErrZeroRisk        = errors.New("zero risk per share")
	ErrInvalidQuantity = errors.New("invalid position size")
)

// Sizer sizes positions so that a stop-out loses Equity*RiskPerTrade.
// It does not know about venue lot sizes; the venue rejects what it cannot fill.
type Sizer struct {
	Equity       float64
	RiskPerTrade float64
	StopPct      float64
}

func NewSizer(equity, riskPerTrade, stopPct float64) Sizer {
	if stopPct <= 0 {
		stopPct = DefaultStopPct
	}
	return Sizer{Equity: equity, RiskPerTrade: riskPerTrade, StopPct: stopPct}
}

// StopLoss places the stop StopPct below entry regardless of trade direction.
func (s Sizer) StopLoss(entryPrice float64) float64 {
	return entryPrice * (1 - s.StopPct)
}

func (s Sizer) Size(entryPrice, stopLossPrice float64) (float64, error) {
	riskPerShare := math.Abs(entryPrice - stopLossPrice)
	if riskPerShare == 0 {
		slog.Info("sizing rejected", "reason", "zero_risk_per_share", "entry", entryPrice, "stop", stopLossPrice)
		return 0, fmt.Errorf("%w: entry=%v stop=%v", ErrZeroRisk, entryPrice, stopLossPrice)
	}

	qty := (s.Equity * s.RiskPerTrade) / riskPerShare
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		slog.Info("sizing rejected", "reason", "invalid_quantity", "qty", qty, "entry", entryPrice, "stop", stopLossPrice)
		return 0, fmt.Errorf("%w: qty=%v entry=%v stop=%v", ErrInvalidQuantity, qty, entryPrice, stopLossPrice)
	}

	slog.Debug("position sized", "entry", entryPrice, "stop", stopLossPrice, "risk_per_share", riskPerShare, "qty", qty)
	return qty, nil
}

// SizeAt derives the stop from entry and sizes against it.
func (s Sizer) SizeAt(entryPrice float64) (qty float64, stopLossPrice float64, err error) {
	stopLossPrice = s.StopLoss(entryPrice)
	qty, err = s.Size(entryPrice, stopLossPrice)
	return qty, stopLossPrice, err
}
