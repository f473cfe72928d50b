package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
)

// DefaultFixtureTolerance applies to providers without their own setting.
const DefaultFixtureTolerance = 72 * time.Hour

// FixtureTolerance is the per-provider half-width of the kickoff window.
type FixtureTolerance struct {
	Default    time.Duration
	ByProvider map[string]time.Duration
}

func (t FixtureTolerance) For(provider string) time.Duration {
	if d, ok := t.ByProvider[strings.ToLower(strings.TrimSpace(provider))]; ok && d > 0 {
		return d
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultFixtureTolerance
}

// FixtureMatch is the outcome of ResolveFixture. Reversed means the stored
// fixture has the provider's home team as its away team.
type FixtureMatch struct {
	Fixture   fixture.Fixture
	Found     bool
	Reversed  bool
	DateDelta time.Duration
}

type FixtureResolver struct {
	fixtureRepo fixture.Repository
	tolerance   FixtureTolerance
}

func NewFixtureResolver(fixtureRepo fixture.Repository, tolerance FixtureTolerance) *FixtureResolver {
	return &FixtureResolver{
		fixtureRepo: fixtureRepo,
		tolerance:   tolerance,
	}
}

func (r *FixtureResolver) Tolerance(provider string) time.Duration {
	return r.tolerance.For(provider)
}

// ResolveFixture finds the fixture of home vs away in the league whose kickoff
// lies within the provider's tolerance of date. The canonical pairing is tried
// first, then the reversed one. Within a pairing the closest kickoff wins.
func (r *FixtureResolver) ResolveFixture(ctx context.Context, home, away team.Team, date time.Time, leagueID, provider string) (FixtureMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureResolver.ResolveFixture",
		attribute.String("league_id", leagueID),
		attribute.String("provider", provider),
	)
	defer span.End()

	if strings.TrimSpace(home.ID) == "" || strings.TrimSpace(away.ID) == "" {
		return FixtureMatch{}, fmt.Errorf("%w: home and away team are required", ErrInvalidInput)
	}
	if strings.TrimSpace(leagueID) == "" {
		return FixtureMatch{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if date.IsZero() {
		return FixtureMatch{}, fmt.Errorf("%w: match date is required", ErrInvalidInput)
	}

	tol := r.tolerance.For(provider)
	query := fixture.WindowQuery{
		LeagueID:   leagueID,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		From:       date.Add(-tol),
		To:         date.Add(tol),
	}

	items, err := r.fixtureRepo.ListByPairingInWindow(ctx, query)
	if err != nil {
		return FixtureMatch{}, fmt.Errorf("list fixtures in window: %w", err)
	}
	if best, ok := closestKickoff(items, date); ok {
		return FixtureMatch{Fixture: best, Found: true, DateDelta: best.KickoffAt.Sub(date)}, nil
	}

	query.HomeTeamID, query.AwayTeamID = away.ID, home.ID
	items, err = r.fixtureRepo.ListByPairingInWindow(ctx, query)
	if err != nil {
		return FixtureMatch{}, fmt.Errorf("list reversed fixtures in window: %w", err)
	}
	if best, ok := closestKickoff(items, date); ok {
		return FixtureMatch{Fixture: best, Found: true, Reversed: true, DateDelta: best.KickoffAt.Sub(date)}, nil
	}

	return FixtureMatch{}, nil
}

// CorrectReversed swaps the stored home/away of a reversed match so that it
// follows the provider's orientation. home and away are the teams as the
// provider reported them. Only explicit operator flows call this.
func (r *FixtureResolver) CorrectReversed(ctx context.Context, match FixtureMatch, home, away team.Team) (fixture.Fixture, error) {
	if !match.Found || !match.Reversed {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture match is not reversed", ErrInvalidInput)
	}
	if match.Fixture.HomeTeamID != away.ID || match.Fixture.AwayTeamID != home.ID {
		return fixture.Fixture{}, fmt.Errorf("%w: teams do not match fixture %s", ErrMappingConflict, match.Fixture.ID)
	}

	corrected := match.Fixture
	corrected.HomeTeamID, corrected.AwayTeamID = home.ID, away.ID
	corrected.Slug = fixture.BuildSlug(home.Slug, away.Slug, corrected.KickoffAt)
	if err := r.fixtureRepo.SwapHomeAway(ctx, corrected.ID, corrected.Slug); err != nil {
		return fixture.Fixture{}, fmt.Errorf("swap fixture home/away: %w", err)
	}
	return corrected, nil
}

func closestKickoff(items []fixture.Fixture, date time.Time) (fixture.Fixture, bool) {
	var (
		best     fixture.Fixture
		bestDist time.Duration
		found    bool
	)
	for _, item := range items {
		dist := absDuration(item.KickoffAt.Sub(date))
		if !found || dist < bestDist || (dist == bestDist && item.ID < best.ID) {
			best, bestDist, found = item, dist, true
		}
	}
	return best, found
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
