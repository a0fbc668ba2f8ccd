package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradehub/internal/httpapi"
	"tradehub/pkg/tradehub"
)

var coverageRemote string

var coverageCmd = &cobra.Command{
	Use:   "coverage [asset] [ticker]",
	Short: "Show stored data coverage",
	Long: `Coverage with no arguments lists the cataloged asset types, with an asset
type lists its tickers, and with an asset type and ticker shows every stored
file and how current the newest one is. --remote reads from a running
tradehub server instead of the local catalog.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCoverage,
}

func init() {
	coverageCmd.Flags().StringVar(&coverageRemote, "remote", "", "tradehub server URL, e.g. http://localhost:8080")
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	if coverageRemote != "" {
		return remoteCoverage(cmd, args)
	}

	_, cat, err := openStores()
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		assets, err := cat.AssetTypes(ctx)
		if err != nil {
			return err
		}
		writeList(out, "Asset types", assets)
	case 1:
		tickers, err := cat.Tickers(ctx, args[0])
		if err != nil {
			return err
		}
		writeList(out, "Tickers ("+args[0]+")", tickers)
	default:
		files, err := cat.Coverage(ctx, args[0], strings.ToUpper(args[1]))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, warnStyle.Render("no data found for this ticker"))
			return nil
		}
		cov := httpapi.Coverage(args[0], strings.ToUpper(args[1]), files, time.Now())
		rows := make([][]string, len(cov.Files))
		for i, f := range cov.Files {
			rows[i] = []string{string(f.Track.Resolution), f.StartDate, f.EndDate, f.Path}
		}
		writeCoverage(out, cov.Asset, cov.Ticker, cov.LastEnd, cov.DaysBehind, rows)
	}
	return nil
}

func remoteCoverage(cmd *cobra.Command, args []string) error {
	c := tradehub.NewClient(coverageRemote)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		assets, err := c.Assets(ctx)
		if err != nil {
			return err
		}
		writeList(out, "Asset types", assets)
	case 1:
		tickers, err := c.Tickers(ctx, args[0])
		if err != nil {
			return err
		}
		writeList(out, "Tickers ("+args[0]+")", tickers)
	default:
		cov, err := c.Coverage(ctx, args[0], strings.ToUpper(args[1]))
		if tradehub.IsNotFound(err) {
			fmt.Fprintln(out, warnStyle.Render("no data found for this ticker"))
			return nil
		}
		if err != nil {
			return err
		}
		rows := make([][]string, len(cov.Files))
		for i, f := range cov.Files {
			rows[i] = []string{f.Track.Resolution, f.StartDate, f.EndDate, f.Path}
		}
		writeCoverage(out, cov.Asset, cov.Ticker, cov.LastEnd, cov.DaysBehind, rows)
	}
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, headerStyle.Render(title))
	if len(items) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (none)"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}

func writeCoverage(w io.Writer, asset, ticker, lastEnd string, daysBehind int, rows [][]string) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Data coverage for %s/%s", asset, ticker)))
	if lastEnd != "" {
		fmt.Fprintln(w, freshnessLine(lastEnd, daysBehind))
	}
	fmt.Fprintln(w)
	writeTable(w, []string{"RESOLUTION", "START", "END", "FILE"}, rows)
}
