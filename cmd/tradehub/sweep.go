package main

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"tradehub/internal/store"
	"tradehub/internal/strategy"
	"tradehub/internal/strategy/builtins"
)

var (
	swTrack   trackFlags
	swShorts  string
	swLongs   string
	swCash    float64
	swRisk    float64
	swFrom    string
	swTo      string
	swWorkers int
	swTop     int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Backtest a grid of SMA windows in parallel",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	addTrackFlags(sweepCmd, &swTrack)
	sweepCmd.Flags().StringVar(&swShorts, "shorts", "5,10,20", "comma-separated short windows")
	sweepCmd.Flags().StringVar(&swLongs, "longs", "50,100,200", "comma-separated long windows")
	sweepCmd.Flags().Float64Var(&swCash, "cash", 0, "initial cash (default from config)")
	sweepCmd.Flags().Float64Var(&swRisk, "risk", 0, "fraction of cash committed per entry (default from config)")
	sweepCmd.Flags().StringVar(&swFrom, "from", "", "start date YYYY-MM-DD")
	sweepCmd.Flags().StringVar(&swTo, "to", "", "end date YYYY-MM-DD")
	sweepCmd.Flags().IntVar(&swWorkers, "workers", runtime.NumCPU(), "parallel backtests")
	sweepCmd.Flags().IntVar(&swTop, "top", 10, "rows to print, best total return first (0 = all)")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	track, err := swTrack.track()
	if err != nil {
		return err
	}
	start, end, err := parseDateRange(swFrom, swTo)
	if err != nil {
		return err
	}
	shorts, err := parseInts(swShorts)
	if err != nil {
		return err
	}
	longs, err := parseInts(swLongs)
	if err != nil {
		return err
	}
	grid := strategy.WindowGrid(backtestParams(0, 0, swCash, swRisk), shorts, longs)
	if len(grid) == 0 {
		return fmt.Errorf("no window pair with short < long")
	}

	ps, cat, err := openStores()
	if err != nil {
		return err
	}
	defer cat.Close()

	bars, err := store.NewLoader(cat, ps).LoadBars(cmd.Context(), track, start, end)
	if err != nil {
		return err
	}
	if err := strategy.ValidateBars(bars); err != nil {
		return err
	}

	results, err := strategy.Sweep(cmd.Context(), builtins.SMACrossFactory, bars, grid, swWorkers)
	if err != nil {
		return err
	}

	ok := results[:0:0]
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].Report.Metrics.TotalReturn > ok[j].Report.Metrics.TotalReturn
	})
	if swTop > 0 && len(ok) > swTop {
		ok = ok[:swTop]
	}

	rows := make([][]string, len(ok))
	for i, r := range ok {
		m := r.Report.Metrics
		cagr, sharpe := "n/a", "n/a"
		if m.CAGR != nil {
			cagr = pct(*m.CAGR)
		}
		if !math.IsNaN(m.Sharpe) {
			sharpe = fmt.Sprintf("%.3f", m.Sharpe)
		}
		rows[i] = []string{
			fmt.Sprint(r.Params.ShortWindow),
			fmt.Sprint(r.Params.LongWindow),
			signedStyle(m.TotalReturn).Render(pct(m.TotalReturn)),
			cagr,
			pct(m.MaxDrawdown),
			sharpe,
			fmt.Sprint(len(r.Report.Fills)),
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("SMA sweep on %s (%d bars, %d combinations)", track, len(bars), len(grid))))
	writeTable(out, []string{"SHORT", "LONG", "RETURN", "CAGR", "MAX DD", "SHARPE", "FILLS"}, rows)
	return nil
}
