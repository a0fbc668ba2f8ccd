package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradehub/internal/config"
	"tradehub/internal/gather"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Download new bars for every configured track",
	Long: `Collect brings every track in the tracks file up to date. Tracks with
stored data resume the day after their latest file; new tracks reach back
the per-resolution limit from the collector config.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	tracks, err := config.LoadTracks(cfg.Storage.TracksPath)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No tracks defined in %s\n", cfg.Storage.TracksPath)
		return nil
	}

	ps, cat, err := openStores()
	if err != nil {
		return err
	}
	defer cat.Close()

	results, err := newCollector(ps, cat, nil).Run(cmd.Context(), tracks)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		status := string(r.Status)
		detail := r.Path
		switch r.Status {
		case gather.StatusSaved:
			status = gainStyle.Render(status)
		case gather.StatusFailed:
			status = lossStyle.Render(status)
			detail = r.Error
			failed++
		default:
			status = dimStyle.Render(status)
		}
		rows = append(rows, []string{r.Track.String(), status, fmt.Sprint(r.Bars), detail})
	}
	writeTable(cmd.OutOrStdout(), []string{"TRACK", "STATUS", "BARS", "DETAIL"}, rows)

	if failed > 0 {
		return fmt.Errorf("%d of %d tracks failed", failed, len(results))
	}
	return nil
}
