package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Catalog bar files already present in the data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, cat, err := openStores()
		if err != nil {
			return err
		}
		defer cat.Close()

		added, err := cat.Index(cmd.Context(), ps)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d new files from %s\n", added, ps.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
