package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

var importScheduleLeagues []string

var importScheduleCmd = &cobra.Command{
	Use:   "import-schedule",
	Short: "Import season venues, teams and fixtures from SportMonks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		if s.ScheduleImport == nil {
			return fmt.Errorf("%w: set SPORTMONKS_ENABLED=true to import schedules", usecase.ErrDependencyUnavailable)
		}

		leagues := importScheduleLeagues
		if len(leagues) == 0 {
			leagues = s.Config.PriceUpdateLeagues
		}

		results := make([]usecase.ScheduleImportResult, 0, len(leagues))
		failed := 0
		for _, slug := range leagues {
			result, err := s.ScheduleImport.ImportSeason(ctx, slug)
			if err != nil {
				failed++
				s.Logger.ErrorContext(ctx, "schedule import failed", "league", slug, "error", err)
				continue
			}
			results = append(results, result)
		}

		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("schedule import failed for %d of %d leagues", failed, len(leagues))
		}
		return nil
	},
}

func init() {
	importScheduleCmd.Flags().StringSliceVar(&importScheduleLeagues, "league", nil, "league slug to import (repeatable, defaults to PRICE_UPDATE_LEAGUES)")
	rootCmd.AddCommand(importScheduleCmd)
}
