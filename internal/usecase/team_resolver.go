package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/matching"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
)

// TeamScope narrows resolution to one league and names the supplier whose
// recorded mappings are consulted first. Both fields are optional.
type TeamScope struct {
	LeagueID   string
	SupplierID string
}

// TeamMatch is the outcome of ResolveTeam. A NoMatch result is not an error.
type TeamMatch struct {
	Team       team.Team
	Tier       matching.Tier
	Reason     string
	Ambiguous  bool
	Candidates []team.Team
}

func (m TeamMatch) Found() bool {
	return m.Tier.Found()
}

type TeamResolverOptions struct {
	MinContainmentLength int
	AllowHeuristic       bool
	Normalizer           *matching.Normalizer
}

// TeamResolver maps free-text supplier team names onto canonical teams.
// It never writes.
type TeamResolver struct {
	teamRepo   team.Repository
	minLen     int
	heuristic  bool
	normalizer *matching.Normalizer
}

func NewTeamResolver(teamRepo team.Repository, opts TeamResolverOptions) *TeamResolver {
	minLen := opts.MinContainmentLength
	if minLen <= 0 {
		minLen = matching.DefaultMinContainmentLength
	}
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = matching.DefaultNormalizer()
	}
	return &TeamResolver{
		teamRepo:   teamRepo,
		minLen:     minLen,
		heuristic:  opts.AllowHeuristic,
		normalizer: normalizer,
	}
}

// WithHeuristic returns a copy of the resolver with the heuristic tier toggled.
func (r *TeamResolver) WithHeuristic(enabled bool) *TeamResolver {
	clone := *r
	clone.heuristic = enabled
	return &clone
}

func (r *TeamResolver) Normalizer() *matching.Normalizer {
	return r.normalizer
}

// ResolveTeam tries the tiers in strict order and returns the first hit:
// supplier mapping, canonical name, normalised name, then (when enabled) the
// trailing-name heuristic.
func (r *TeamResolver) ResolveTeam(ctx context.Context, candidateName string, scope TeamScope) (TeamMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamResolver.ResolveTeam",
		attribute.String("league_id", scope.LeagueID),
		attribute.String("supplier_id", scope.SupplierID),
	)
	defer span.End()

	candidate := strings.TrimSpace(candidateName)
	if candidate == "" {
		return TeamMatch{}, fmt.Errorf("%w: candidate team name is required", ErrInvalidInput)
	}

	teams, err := r.loadTeams(ctx, scope.LeagueID)
	if err != nil {
		return TeamMatch{}, err
	}

	if scope.SupplierID != "" {
		hits := filterTeams(teams, func(item team.Team) bool {
			entry, ok := item.SupplierEntry(scope.SupplierID)
			return ok && entry.SupplierTeamName == candidate
		})
		if len(hits) > 0 {
			return newTeamMatch(hits, matching.ExactMatch, "supplier mapping"), nil
		}
	}

	hits := filterTeams(teams, func(item team.Team) bool {
		return item.NameEN == candidate || (item.NameHE != "" && item.NameHE == candidate) || (item.Code != "" && item.Code == candidate)
	})
	if len(hits) > 0 {
		return newTeamMatch(hits, matching.ExactMatch, "canonical name"), nil
	}
	hits = filterTeams(teams, func(item team.Team) bool {
		return strings.EqualFold(item.NameEN, candidate) ||
			(item.NameHE != "" && strings.EqualFold(item.NameHE, candidate)) ||
			(item.Code != "" && strings.EqualFold(item.Code, candidate))
	})
	if len(hits) > 0 {
		return newTeamMatch(hits, matching.ExactMatch, "canonical name, case-insensitive"), nil
	}

	normalized := r.normalizer.Normalize(candidate)
	if normalized != "" {
		hits = filterTeams(teams, func(item team.Team) bool {
			return r.normalizer.Normalize(item.NameEN) == normalized
		})
		if len(hits) > 0 {
			return newTeamMatch(hits, matching.NormalizedMatch, "normalized name"), nil
		}
		hits = filterTeams(teams, func(item team.Team) bool {
			return matching.Contains(normalized, r.normalizer.Normalize(item.NameEN), r.minLen)
		})
		if len(hits) > 0 {
			return newTeamMatch(hits, matching.NormalizedMatch, "normalized containment"), nil
		}
	}

	if r.heuristic {
		trailing := r.normalizer.Normalize(matching.TrailingName(candidate))
		if utf8.RuneCountInString(trailing) >= r.minLen {
			hits = filterTeams(teams, func(item team.Team) bool {
				return strings.Contains(r.normalizer.Normalize(item.NameEN), trailing)
			})
			if len(hits) > 0 {
				return newTeamMatch(hits, matching.HeuristicMatch, "trailing name "+trailing), nil
			}
		}
	}

	return TeamMatch{Tier: matching.NoMatch, Reason: "no tier matched"}, nil
}

func (r *TeamResolver) loadTeams(ctx context.Context, leagueID string) ([]team.Team, error) {
	var (
		teams []team.Team
		err   error
	)
	if strings.TrimSpace(leagueID) == "" {
		teams, err = r.teamRepo.List(ctx)
	} else {
		teams, err = r.teamRepo.ListByLeague(ctx, leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("list candidate teams: %w", err)
	}
	sorted := make([]team.Team, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })
	return sorted, nil
}

func filterTeams(teams []team.Team, keep func(team.Team) bool) []team.Team {
	var out []team.Team
	for _, item := range teams {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func newTeamMatch(hits []team.Team, tier matching.Tier, reason string) TeamMatch {
	match := TeamMatch{
		Team:   hits[0],
		Tier:   tier,
		Reason: reason,
	}
	if len(hits) > 1 {
		match.Ambiguous = true
		match.Candidates = hits
	}
	return match
}
