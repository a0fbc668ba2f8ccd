package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradehub/internal/broker"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Check the Alpaca brokerage connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := broker.Probe(cmd.Context(), newBroker())
		out := cmd.OutOrStdout()
		if !res.OK {
			fmt.Fprintln(out, lossStyle.Render("Alpaca connection FAILED: "+res.Error))
			return fmt.Errorf("broker probe failed")
		}
		fmt.Fprintln(out, gainStyle.Render("Alpaca connection OK"))
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Status"), res.Status)
		fmt.Fprintf(out, "%s%.2f\n", labelStyle.Render("Buying power"), res.BuyingPower)
		fmt.Fprintf(out, "%s%.2f\n", labelStyle.Render("Cash"), res.Cash)
		fmt.Fprintf(out, "%s%.2f\n", labelStyle.Render("Equity"), res.Equity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
