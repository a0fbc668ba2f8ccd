package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tradehub/internal/domain"
)

// SweepResult pairs one parameter set with its report or validation error.
type SweepResult struct {
	Params Params
	Report *Report
	Err    error
}

// Sweep backtests bars under every parameter set in grid using up to
// workers goroutines. Results are returned in grid order. A parameter set
// that fails validation records its error without stopping the sweep; only
// context cancellation aborts it.
func Sweep(ctx context.Context, factory Factory, bars []domain.Bar, grid []Params, workers int) ([]SweepResult, error) {
	results := make([]SweepResult, len(grid))
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := Run(factory(p), bars, p)
			results[i] = SweepResult{Params: p, Report: rep, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WindowGrid expands base into one Params per (short, long) pair with
// short < long.
func WindowGrid(base Params, shorts, longs []int) []Params {
	var grid []Params
	for _, s := range shorts {
		for _, l := range longs {
			if s >= l {
				continue
			}
			p := base
			p.ShortWindow, p.LongWindow = s, l
			grid = append(grid, p)
		}
	}
	return grid
}
