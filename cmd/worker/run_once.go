package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runOnceLeagues []string

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Reconcile supplier prices for the configured leagues once",
	Long:  "Runs one price pass and prints the JSON summary. Exits non-zero when the run cannot start or every league fails.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		summary, err := s.PriceWorker.RunOnce(ctx, runOnceLeagues)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
		if summary.AllFailed() {
			return fmt.Errorf("all %d leagues failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	runOnceCmd.Flags().StringSliceVar(&runOnceLeagues, "league", nil, "league slug to reconcile (repeatable, defaults to PRICE_UPDATE_LEAGUES)")
	rootCmd.AddCommand(runOnceCmd)
}
