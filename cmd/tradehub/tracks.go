package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tradehub/internal/config"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List or add tracked instruments",
}

var tracksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks, err := config.LoadTracks(cfg.Storage.TracksPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(tracks) == 0 {
			fmt.Fprintln(out, dimStyle.Render("No tracks defined yet."))
			return nil
		}
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = []string{string(t.AssetClass), t.Ticker, string(t.Resolution)}
		}
		writeTable(out, []string{"ASSET", "TICKER", "RESOLUTION"}, rows)
		return nil
	},
}

var addTrack trackFlags

var tracksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a track to the tracks file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := addTrack.track()
		if err != nil {
			return err
		}
		_, err = config.AddTrack(cfg.Storage.TracksPath, t)
		if errors.Is(err, config.ErrTrackExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "Track already exists: %s\n", t)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", t)
		return nil
	},
}

func init() {
	addTrackFlags(tracksAddCmd, &addTrack)
	tracksCmd.AddCommand(tracksListCmd, tracksAddCmd)
	rootCmd.AddCommand(tracksCmd)
}
