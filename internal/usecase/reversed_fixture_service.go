package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

// ReversedFixture is an upcoming fixture that every supplier carrying the
// orientation flag reports with home and away swapped.
type ReversedFixture struct {
	Fixture   fixture.Fixture `json:"fixture"`
	Suppliers []string        `json:"suppliers"`
}

// ReversedFixtureService backs the operator flow that swaps home and away
// on fixtures suppliers agree are stored the wrong way round.
type ReversedFixtureService struct {
	leagueRepo  league.Repository
	teamRepo    team.Repository
	fixtureRepo fixture.Repository
	resolver    *FixtureResolver
	mapping     *SupplierMappingService
	clock       clockwork.Clock
	logger      *logging.Logger
}

func NewReversedFixtureService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	fixtureRepo fixture.Repository,
	resolver *FixtureResolver,
	mapping *SupplierMappingService,
	clock clockwork.Clock,
	logger *logging.Logger,
) *ReversedFixtureService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReversedFixtureService{
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		fixtureRepo: fixtureRepo,
		resolver:    resolver,
		mapping:     mapping,
		clock:       clock,
		logger:      logger,
	}
}

func (s *ReversedFixtureService) ListReported(ctx context.Context) ([]ReversedFixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReversedFixtureService.ListReported")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	now := s.clock.Now().UTC()
	var out []ReversedFixture
	for _, lg := range leagues {
		items, err := s.fixtureRepo.ListUpcoming(ctx, lg.ID, now)
		if err != nil {
			return nil, fmt.Errorf("list upcoming fixtures for %s: %w", lg.Slug, err)
		}
		for _, item := range items {
			if suppliers, ok := reportedReversed(item); ok {
				out = append(out, ReversedFixture{Fixture: item, Suppliers: suppliers})
			}
		}
	}
	return out, nil
}

// Correct swaps the fixture's home and away teams and flips the stored
// orientation flag on every supplier reference.
func (s *ReversedFixtureService) Correct(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReversedFixtureService.Correct")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	if _, ok := reportedReversed(item); !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture %s is not reported reversed", ErrInvalidInput, fixtureID)
	}

	// The provider's home team is the stored away team.
	providerHome, err := s.loadTeam(ctx, item.AwayTeamID)
	if err != nil {
		return fixture.Fixture{}, err
	}
	providerAway, err := s.loadTeam(ctx, item.HomeTeamID)
	if err != nil {
		return fixture.Fixture{}, err
	}

	corrected, err := s.resolver.CorrectReversed(ctx, FixtureMatch{Fixture: item, Found: true, Reversed: true}, providerHome, providerAway)
	if err != nil {
		return fixture.Fixture{}, err
	}

	for _, ref := range item.SupplierRefs {
		flag, ok := ref.Metadata[fixture.MetaReversed]
		if !ok {
			continue
		}
		reversed, _ := strconv.ParseBool(flag)
		entry := fixture.SupplierRef{
			SupplierID: ref.SupplierID,
			Metadata:   map[string]string{fixture.MetaReversed: strconv.FormatBool(!reversed)},
		}
		if _, err := s.mapping.UpsertFixtureMapping(ctx, corrected.ID, entry); err != nil {
			return corrected, fmt.Errorf("flip orientation flag for %s: %w", ref.SupplierID, err)
		}
	}

	s.logger.InfoContext(ctx, "fixture home and away swapped",
		"fixture_id", corrected.ID,
		"home_team_id", corrected.HomeTeamID,
		"away_team_id", corrected.AwayTeamID,
		"slug", corrected.Slug,
	)
	return corrected, nil
}

func (s *ReversedFixtureService) loadTeam(ctx context.Context, teamID string) (team.Team, error) {
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return item, nil
}

// reportedReversed is true when at least one supplier flags the fixture
// reversed and none flags it correct.
func reportedReversed(item fixture.Fixture) ([]string, bool) {
	var suppliers []string
	for _, ref := range item.SupplierRefs {
		flag, ok := ref.Metadata[fixture.MetaReversed]
		if !ok {
			continue
		}
		reversed, err := strconv.ParseBool(flag)
		if err != nil {
			continue
		}
		if !reversed {
			return nil, false
		}
		suppliers = append(suppliers, ref.SupplierID)
	}
	return suppliers, len(suppliers) > 0
}
