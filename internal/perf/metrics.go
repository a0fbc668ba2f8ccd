// Package perf derives summary risk and return statistics from an equity
// curve.
package perf

import (
	"encoding/json"
	"math"

	"tradehub/internal/portfolio"
)

// Options controls annualization.
type Options struct {
	PeriodsPerYear int
	RiskFreeRate   float64
}

// DefaultOptions annualizes over 252 trading days with a zero risk-free rate.
func DefaultOptions() Options {
	return Options{PeriodsPerYear: 252}
}

// Metrics summarizes an equity curve. CAGR is nil when the curve holds no
// returns; Sharpe is NaN when return volatility is zero or undefined.
type Metrics struct {
	TotalReturn float64
	CAGR        *float64
	MaxDrawdown float64
	Sharpe      float64
}

// MarshalJSON renders the undefined CAGR and Sharpe sentinels as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	var sharpe *float64
	if !math.IsNaN(m.Sharpe) && !math.IsInf(m.Sharpe, 0) {
		sharpe = &m.Sharpe
	}
	return json.Marshal(struct {
		TotalReturn float64  `json:"total_return"`
		CAGR        *float64 `json:"cagr"`
		MaxDrawdown float64  `json:"max_drawdown"`
		Sharpe      *float64 `json:"sharpe"`
	}{m.TotalReturn, m.CAGR, m.MaxDrawdown, sharpe})
}

// Compute returns the metrics of equity, an ordered series of total
// portfolio values.
func Compute(equity []float64, opts Options) Metrics {
	if opts.PeriodsPerYear <= 0 {
		opts.PeriodsPerYear = DefaultOptions().PeriodsPerYear
	}
	m := Metrics{Sharpe: math.NaN()}
	if len(equity) == 0 {
		return m
	}

	first, last := equity[0], equity[len(equity)-1]
	growth := ratio(last, first)
	m.TotalReturn = growth - 1

	returns := Returns(equity)
	if years := float64(len(returns)) / float64(opts.PeriodsPerYear); years > 0 && !math.IsNaN(growth) {
		cagr := math.Pow(growth, 1/years) - 1
		m.CAGR = &cagr
	}
	m.MaxDrawdown = MaxDrawdown(returns)
	m.Sharpe = Sharpe(returns, opts)
	return m
}

// FromEquityCurve is Compute over the values of a simulated curve.
func FromEquityCurve(curve []portfolio.EquityPoint, opts Options) Metrics {
	return Compute(portfolio.Values(curve), opts)
}

// Returns computes the simple period returns of equity. The result has one
// fewer element than equity.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return []float64{}
	}
	out := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		out[i-1] = ratio(equity[i], equity[i-1]) - 1
	}
	return out
}

// MaxDrawdown returns the most negative decline of the compounded returns
// from their running peak, as a fraction of that peak. It is 0 when the
// series never falls.
func MaxDrawdown(returns []float64) float64 {
	var worst float64
	cumulative, peak := 1.0, 1.0
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := ratio(cumulative, peak) - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// Sharpe returns the annualized Sharpe ratio of returns using the sample
// standard deviation, or NaN when it cannot be formed.
func Sharpe(returns []float64, opts Options) float64 {
	if len(returns) < 2 || opts.PeriodsPerYear <= 0 {
		return math.NaN()
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)-1))

	p := float64(opts.PeriodsPerYear)
	annStd := std * math.Sqrt(p)
	if annStd == 0 || math.IsNaN(annStd) || math.IsInf(annStd, 0) {
		return math.NaN()
	}
	return (mean*p - opts.RiskFreeRate) / annStd
}

// ratio divides a by b, returning NaN instead of an infinity when b is 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}
