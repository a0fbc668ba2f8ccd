// Package builtins provides built-in strategy implementations that ship with
// tradehub.
package builtins

import (
	"math"

	"tradehub/internal/domain"
	"tradehub/internal/indicator"
	"tradehub/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It is long
// while the short-period SMA is strictly above the long-period SMA and flat
// otherwise.
type SMACross struct {
	shortPeriod int
	longPeriod  int
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}
}

// SMACrossName is the registry name of the SMA crossover strategy.
const SMACrossName = "sma-cross"

// SMACrossFactory builds an SMACross from the backtest windows.
func SMACrossFactory(p strategy.Params) strategy.Strategy {
	return NewSMACross(p.ShortWindow, p.LongWindow)
}

// Register adds every built-in strategy to r.
func Register(r *strategy.Registry) {
	r.Register(SMACrossName, SMACrossFactory)
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return SMACrossName
}

// Windows returns the short and long periods.
func (s *SMACross) Windows() (short, long int) {
	return s.shortPeriod, s.longPeriod
}

// Signals returns one SignalRow per bar.
func (s *SMACross) Signals(bars []domain.Bar) []domain.SignalRow {
	return GenerateSignals(bars, s.shortPeriod, s.longPeriod)
}

// GenerateSignals computes the short and long SMAs of the bar closes, the
// binary long/flat signal, and its transitions. Bars with an undefined SMA,
// and bars where the SMAs are equal, are flat. The first row never carries
// a transition.
func GenerateSignals(bars []domain.Bar, shortWindow, longWindow int) []domain.SignalRow {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	short := indicator.SMA(closes, shortWindow)
	long := indicator.SMA(closes, longWindow)

	rows := make([]domain.SignalRow, len(bars))
	for i, b := range bars {
		row := domain.SignalRow{
			Timestamp: b.Timestamp,
			Close:     b.Close,
			SMAShort:  short[i],
			SMALong:   long[i],
		}
		// NaN comparisons are false, so undefined windows stay flat.
		if !math.IsNaN(short[i]) && !math.IsNaN(long[i]) && short[i] > long[i] {
			row.Signal = 1
		}
		if i > 0 {
			row.Transition = row.Signal - rows[i-1].Signal
		}
		rows[i] = row
	}
	return rows
}
