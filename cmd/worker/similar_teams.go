package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/teamembedding"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

var (
	similarTeamsID    string
	similarTeamsLang  string
	similarTeamsLimit int
)

var similarTeamsCmd = &cobra.Command{
	Use:   "similar-teams",
	Short: "Rank teams by name-embedding similarity to one team",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		teamID := strings.TrimSpace(similarTeamsID)
		if teamID == "" {
			return fmt.Errorf("%w: --team is required", usecase.ErrInvalidInput)
		}

		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		target, ok, err := s.Repos.Embeddings.Get(ctx, teamID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no embedding for team %s", usecase.ErrNotFound, teamID)
		}
		all, err := s.Repos.Embeddings.List(ctx)
		if err != nil {
			return err
		}

		candidates := make([]teamembedding.TeamEmbedding, 0, len(all))
		for _, item := range all {
			if item.TeamID != teamID {
				candidates = append(candidates, item)
			}
		}
		ranked := teamembedding.MostSimilar(target.Vector(similarTeamsLang), candidates, similarTeamsLang, similarTeamsLimit)
		return printJSON(cmd.OutOrStdout(), ranked)
	},
}

func init() {
	similarTeamsCmd.Flags().StringVar(&similarTeamsID, "team", "", "team public id")
	similarTeamsCmd.Flags().StringVar(&similarTeamsLang, "lang", teamembedding.LangEN, "embedding language (en or he)")
	similarTeamsCmd.Flags().IntVar(&similarTeamsLimit, "limit", 5, "maximum number of teams to print")
	rootCmd.AddCommand(similarTeamsCmd)
}
