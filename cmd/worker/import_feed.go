package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/ticket-marketplace/external/p1feed"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

var importFeedFile string

var importFeedCmd = &cobra.Command{
	Use:   "import-feed",
	Short: "Import P1 affiliate feed prices",
	Long:  "Imports an XML or CSV dump given with --file, or downloads P1_FEED_URL when no file is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		var source usecase.FeedSource
		if path := strings.TrimSpace(importFeedFile); path != "" {
			source = p1feed.NewFileSource(path)
		} else if s.Config.P1FeedURL == "" {
			return fmt.Errorf("%w: --file or P1_FEED_URL is required", usecase.ErrInvalidInput)
		}

		summary, err := s.FeedWorker.RunOnce(ctx, source)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
		if summary.AllFailed() {
			return fmt.Errorf("feed import failed")
		}
		return nil
	},
}

func init() {
	importFeedCmd.Flags().StringVar(&importFeedFile, "file", "", "path to a P1 feed dump (.xml or .csv)")
	rootCmd.AddCommand(importFeedCmd)
}
