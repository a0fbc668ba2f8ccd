package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tradehub/internal/store"
	"tradehub/internal/strategy"
	"tradehub/internal/strategy/builtins"
)

var (
	btTrack    trackFlags
	btStrategy string
	btShort    int
	btLong     int
	btCash     float64
	btRisk     float64
	btFrom     string
	btTo       string
	btCurve    bool
	btJSON     bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest a strategy on a stored track",
	Long: `Backtest replays a track's stored bars through a strategy, simulates a
long-only cash ledger and prints total return, CAGR, max drawdown and Sharpe.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	addTrackFlags(backtestCmd, &btTrack)
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", builtins.SMACrossName, "strategy name")
	backtestCmd.Flags().IntVar(&btShort, "short", 0, "short SMA window (default from config)")
	backtestCmd.Flags().IntVar(&btLong, "long", 0, "long SMA window (default from config)")
	backtestCmd.Flags().Float64Var(&btCash, "cash", 0, "initial cash (default from config)")
	backtestCmd.Flags().Float64Var(&btRisk, "risk", 0, "fraction of cash committed per entry (default from config)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().BoolVar(&btCurve, "curve", false, "print the equity curve")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the report as JSON")

	rootCmd.AddCommand(backtestCmd)
}

func addTrackFlags(cmd *cobra.Command, f *trackFlags) {
	cmd.Flags().StringVar(&f.asset, "asset", "stock", "asset type (stock or crypto)")
	cmd.Flags().StringVar(&f.ticker, "ticker", "", "ticker, e.g. AAPL or BTC-USD (required)")
	cmd.Flags().StringVar(&f.resolution, "resolution", "1d", "bar resolution (1d, 1h, 15m, 5m)")
	cmd.MarkFlagRequired("ticker")
}

// backtestParams overlays non-zero flag values on the configured defaults.
func backtestParams(short, long int, cash, risk float64) strategy.Params {
	p := cfg.Backtest
	if short > 0 {
		p.ShortWindow = short
	}
	if long > 0 {
		p.LongWindow = long
	}
	if cash > 0 {
		p.InitialCash = cash
	}
	if risk > 0 {
		p.RiskFraction = risk
	}
	return p
}

func runBacktest(cmd *cobra.Command, args []string) error {
	track, err := btTrack.track()
	if err != nil {
		return err
	}
	start, end, err := parseDateRange(btFrom, btTo)
	if err != nil {
		return err
	}
	p := backtestParams(btShort, btLong, btCash, btRisk)

	ps, cat, err := openStores()
	if err != nil {
		return err
	}
	defer cat.Close()

	bt := strategy.NewBacktester(store.NewLoader(cat, ps), newStrategies(), nil)
	rep, err := bt.Run(cmd.Context(), btStrategy, track, start, end, p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if btJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	writeReport(out, track.String(), rep)
	if btCurve {
		fmt.Fprintln(out)
		writeCurve(out, rep)
	}
	return nil
}

func writeReport(w io.Writer, track string, rep *strategy.Report) {
	fmt.Fprintln(w, headerStyle.Render("=== Backtest ==="))
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Strategy"), rep.Strategy)
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Track"), track)
	fmt.Fprintf(w, "%s%d / %d\n", labelStyle.Render("Windows"), rep.Params.ShortWindow, rep.Params.LongWindow)
	if n := len(rep.Equity); n > 0 {
		fmt.Fprintf(w, "%s%s to %s (%d bars)\n", labelStyle.Render("Period"),
			rep.Equity[0].Timestamp.Format(store.DateLayout), rep.Equity[n-1].Timestamp.Format(store.DateLayout), n)
		fmt.Fprintf(w, "%s%.2f -> %.2f\n", labelStyle.Render("Equity"), rep.Equity[0].Equity, rep.Equity[n-1].Equity)
	}
	fmt.Fprintf(w, "%s%d\n", labelStyle.Render("Fills"), len(rep.Fills))
	fmt.Fprintln(w)
	writeMetrics(w, rep.Metrics)
}

func writeCurve(w io.Writer, rep *strategy.Report) {
	rows := make([][]string, len(rep.Equity))
	for i, pt := range rep.Equity {
		sig := rep.Signals[i]
		marker := ""
		switch sig.Transition {
		case 1:
			marker = gainStyle.Render("BUY")
		case -1:
			marker = lossStyle.Render("SELL")
		}
		rows[i] = []string{
			pt.Timestamp.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", sig.Close),
			fmt.Sprintf("%.2f", pt.Cash),
			fmt.Sprint(pt.Position),
			fmt.Sprintf("%.2f", pt.Equity),
			marker,
		}
	}
	writeTable(w, []string{"TIME", "CLOSE", "CASH", "POSITION", "EQUITY", ""}, rows)
}
