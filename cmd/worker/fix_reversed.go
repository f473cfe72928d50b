package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

var fixReversedApply bool

type fixReversedOutput struct {
	Reported  int                       `json:"reported"`
	Applied   bool                      `json:"applied"`
	Fixtures  []usecase.ReversedFixture `json:"fixtures"`
	Corrected []fixture.Fixture         `json:"corrected,omitempty"`
	Failed    []string                  `json:"failed,omitempty"`
}

var fixReversedCmd = &cobra.Command{
	Use:   "fix-reversed",
	Short: "List fixtures suppliers report with home and away swapped",
	Long:  "Lists upcoming fixtures whose supplier mappings say they are reversed. With --apply, swaps home and away on each one.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		reported, err := s.Reversed.ListReported(ctx)
		if err != nil {
			return err
		}

		out := fixReversedOutput{Reported: len(reported), Applied: fixReversedApply, Fixtures: reported}
		if fixReversedApply {
			for _, item := range reported {
				fixed, err := s.Reversed.Correct(ctx, item.Fixture.ID)
				if err != nil {
					s.Logger.ErrorContext(ctx, "correct reversed fixture failed", "fixture_id", item.Fixture.ID, "error", err)
					out.Failed = append(out.Failed, item.Fixture.ID)
					continue
				}
				out.Corrected = append(out.Corrected, fixed)
			}
		}

		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if len(out.Failed) > 0 {
			return fmt.Errorf("%d of %d reversed fixtures could not be corrected", len(out.Failed), len(reported))
		}
		return nil
	},
}

func init() {
	fixReversedCmd.Flags().BoolVar(&fixReversedApply, "apply", false, "swap home and away on every reported fixture")
	rootCmd.AddCommand(fixReversedCmd)
}
