package strategy

import (
	"errors"
	"fmt"

	"tradehub/internal/domain"
)

var (
	// ErrInvalidParams is returned when backtest parameters are out of range.
	ErrInvalidParams = errors.New("invalid backtest parameters")
	// ErrUnsortedBars is returned when bar timestamps are not strictly increasing.
	ErrUnsortedBars = errors.New("bars not strictly ascending by timestamp")
	// ErrNonPositivePrice is returned when a bar has a close <= 0.
	ErrNonPositivePrice = errors.New("non-positive close price")
)

// Params configures one backtest run.
type Params struct {
	ShortWindow    int     `json:"short_window" yaml:"short_window"`
	LongWindow     int     `json:"long_window" yaml:"long_window"`
	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash"`
	RiskFraction   float64 `json:"risk_fraction" yaml:"risk_fraction"`
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// DefaultParams returns the 20/50 crossover on 10,000 of cash committing 10%
// per entry, annualized over 252 periods.
func DefaultParams() Params {
	return Params{
		ShortWindow:    20,
		LongWindow:     50,
		InitialCash:    10000,
		RiskFraction:   0.1,
		PeriodsPerYear: 252,
	}
}

// Validate reports the first out-of-range field, wrapped in ErrInvalidParams.
func (p Params) Validate() error {
	switch {
	case p.ShortWindow <= 0 || p.LongWindow <= 0:
		return fmt.Errorf("%w: windows must be positive (short=%d, long=%d)", ErrInvalidParams, p.ShortWindow, p.LongWindow)
	case p.ShortWindow >= p.LongWindow:
		return fmt.Errorf("%w: short window %d must be less than long window %d", ErrInvalidParams, p.ShortWindow, p.LongWindow)
	case !(p.InitialCash > 0):
		return fmt.Errorf("%w: initial cash must be positive, got %v", ErrInvalidParams, p.InitialCash)
	case !(p.RiskFraction > 0 && p.RiskFraction <= 1):
		return fmt.Errorf("%w: risk fraction must be in (0, 1], got %v", ErrInvalidParams, p.RiskFraction)
	case p.PeriodsPerYear <= 0:
		return fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidParams, p.PeriodsPerYear)
	}
	return nil
}

// ValidateBars checks that bars are strictly ascending by timestamp and carry
// positive closes.
func ValidateBars(bars []domain.Bar) error {
	for i, b := range bars {
		if !(b.Close > 0) {
			return fmt.Errorf("%w: bar %d (%s) close %v", ErrNonPositivePrice, i, b.Timestamp.Format("2006-01-02 15:04"), b.Close)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d (%s) is not after %s", ErrUnsortedBars, i,
				b.Timestamp.Format("2006-01-02 15:04"), bars[i-1].Timestamp.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
