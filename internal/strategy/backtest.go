package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradehub/internal/domain"
	"tradehub/internal/metrics"
	"tradehub/internal/perf"
	"tradehub/internal/portfolio"
)

// Report is the full output of one backtest run.
type Report struct {
	Strategy string                  `json:"strategy"`
	Params   Params                  `json:"params"`
	Signals  []domain.SignalRow      `json:"-"`
	Equity   []portfolio.EquityPoint `json:"equity"`
	Fills    []portfolio.Fill        `json:"fills"`
	Metrics  perf.Metrics            `json:"metrics"`
}

// Run validates p and bars, then generates signals with s, simulates the
// ledger, and computes metrics over the resulting equity curve.
func Run(s Strategy, bars []domain.Bar, p Params) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	signals := s.Signals(bars)
	sim := portfolio.Simulate(signals, p.InitialCash, p.RiskFraction)
	m := perf.FromEquityCurve(sim.Equity, perf.Options{
		PeriodsPerYear: p.PeriodsPerYear,
		RiskFreeRate:   p.RiskFreeRate,
	})

	return &Report{
		Strategy: s.Name(),
		Params:   p,
		Signals:  sim.Signals,
		Equity:   sim.Equity,
		Fills:    sim.Fills,
		Metrics:  m,
	}, nil
}

// BarLoader supplies the ordered bar series of a track within [start, end].
// A zero start or end leaves that side unbounded.
type BarLoader interface {
	LoadBars(ctx context.Context, track domain.Track, start, end time.Time) ([]domain.Bar, error)
}

// Backtester loads historical bars for a track and replays them through a
// registered strategy.
type Backtester struct {
	loader   BarLoader
	registry *Registry
	metrics  *metrics.Registry
	log      *slog.Logger
}

// NewBacktester creates a Backtester that reads bars through loader and
// looks up strategies in the provided registry. m may be nil.
func NewBacktester(loader BarLoader, registry *Registry, m *metrics.Registry) *Backtester {
	return &Backtester{
		loader:   loader,
		registry: registry,
		metrics:  m,
		log:      slog.Default().With("component", "backtester"),
	}
}

// Run executes a backtest for the named strategy over the track's bars in
// [start, end].
func (bt *Backtester) Run(ctx context.Context, name string, track domain.Track, start, end time.Time, p Params) (*Report, error) {
	began := time.Now()
	rep, err := bt.run(ctx, name, track, start, end, p)
	if bt.metrics != nil {
		bt.metrics.ObserveBacktest(err, time.Since(began))
	}
	if err != nil {
		bt.log.Warn("backtest failed", "strategy", name, "track", track.String(), "error", err)
		return nil, err
	}
	bt.log.Info("backtest complete",
		"strategy", name,
		"track", track.String(),
		"bars", len(rep.Equity),
		"fills", len(rep.Fills),
		"totalReturn", rep.Metrics.TotalReturn,
	)
	return rep, nil
}

func (bt *Backtester) run(ctx context.Context, name string, track domain.Track, start, end time.Time, p Params) (*Report, error) {
	factory, ok := bt.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	bars, err := bt.loader.LoadBars(ctx, track, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading bars for %s: %w", track, err)
	}
	return Run(factory(p), bars, p)
}
