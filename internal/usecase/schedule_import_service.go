package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/matching"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

const ProviderSportmonks = "sportmonks"

type ScheduleImportConfig struct {
	// SeasonIDByLeague overrides league.SeasonID, keyed by league slug.
	SeasonIDByLeague map[string]int64
	Provider         string
}

// ScheduleImportResult counts what ImportSeason wrote. Skipped rows were
// already up to date.
type ScheduleImportResult struct {
	LeagueSlug      string `json:"league_slug"`
	SeasonID        int64  `json:"season_id"`
	VenuesCreated   int    `json:"venues_created"`
	VenuesUpdated   int    `json:"venues_updated"`
	VenuesSkipped   int    `json:"venues_skipped"`
	TeamsCreated    int    `json:"teams_created"`
	TeamsUpdated    int    `json:"teams_updated"`
	TeamsSkipped    int    `json:"teams_skipped"`
	FixturesCreated int    `json:"fixtures_created"`
	FixturesUpdated int    `json:"fixtures_updated"`
	FixturesSkipped int    `json:"fixtures_skipped"`
	Reversed        int    `json:"reversed"`
	Errors          int    `json:"errors"`
}

// ScheduleImportService loads a season schedule from the football-data
// provider and upserts its venues, teams and fixtures. Rows that already
// match are not written.
type ScheduleImportService struct {
	provider    ScheduleProvider
	leagueRepo  league.Repository
	teamRepo    team.Repository
	venueRepo   venue.Repository
	fixtureRepo fixture.Repository
	teams       *TeamResolver
	venues      *VenueResolver
	fixtures    *FixtureResolver
	cfg         ScheduleImportConfig
	logger      *logging.Logger
}

func NewScheduleImportService(
	provider ScheduleProvider,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	venueRepo venue.Repository,
	fixtureRepo fixture.Repository,
	teams *TeamResolver,
	venues *VenueResolver,
	fixtures *FixtureResolver,
	cfg ScheduleImportConfig,
	logger *logging.Logger,
) *ScheduleImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = ProviderSportmonks
	}
	return &ScheduleImportService{
		provider:    provider,
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		venueRepo:   venueRepo,
		fixtureRepo: fixtureRepo,
		teams:       teams,
		venues:      venues,
		fixtures:    fixtures,
		cfg:         cfg,
		logger:      logger.Named("schedule_import"),
	}
}

func (s *ScheduleImportService) ImportSeason(ctx context.Context, leagueSlug string) (ScheduleImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleImportService.ImportSeason",
		attribute.String("league_slug", leagueSlug),
	)
	defer span.End()

	result := ScheduleImportResult{LeagueSlug: strings.TrimSpace(leagueSlug)}
	if result.LeagueSlug == "" {
		return result, fmt.Errorf("%w: league slug is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return result, fmt.Errorf("%w: schedule provider is not configured", ErrDependencyUnavailable)
	}

	lg, exists, err := s.leagueRepo.GetBySlug(ctx, result.LeagueSlug)
	if err != nil {
		return result, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return result, fmt.Errorf("%w: league=%s", ErrNotFound, result.LeagueSlug)
	}

	seasonID := lg.SeasonID
	if override, ok := s.cfg.SeasonIDByLeague[lg.Slug]; ok && override > 0 {
		seasonID = override
	}
	if seasonID <= 0 {
		return result, fmt.Errorf("%w: league %s has no season id", ErrInvalidInput, lg.Slug)
	}
	result.SeasonID = seasonID

	schedule, err := s.provider.FetchSeasonSchedule(ctx, seasonID)
	if err != nil {
		return result, fmt.Errorf("fetch season schedule: %w", err)
	}
	s.logger.InfoContext(ctx, "season schedule fetched",
		"league_slug", lg.Slug,
		"season_id", seasonID,
		"teams", len(schedule.Teams),
		"venues", len(schedule.Venues),
		"fixtures", len(schedule.Fixtures),
	)

	venueIDs := make(map[int64]string, len(schedule.Venues))
	for _, ext := range schedule.Venues {
		id, err := s.importVenue(ctx, ext, &result)
		if err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "import venue failed", "external_venue_id", ext.ExternalID, "error", err)
			continue
		}
		venueIDs[ext.ExternalID] = id
	}

	teamsByExt := make(map[int64]team.Team, len(schedule.Teams))
	for _, ext := range schedule.Teams {
		item, err := s.importTeam(ctx, lg, ext, venueIDs, &result)
		if err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "import team failed", "external_team_id", ext.ExternalID, "name", ext.Name, "error", err)
			continue
		}
		teamsByExt[ext.ExternalID] = item
	}

	for _, ext := range schedule.Fixtures {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.importFixture(ctx, lg, ext, teamsByExt, &result); err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "import fixture failed", "external_fixture_id", ext.ExternalID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "season schedule imported",
		"league_slug", lg.Slug,
		"venues_created", result.VenuesCreated,
		"teams_created", result.TeamsCreated,
		"fixtures_created", result.FixturesCreated,
		"fixtures_updated", result.FixturesUpdated,
		"fixtures_skipped", result.FixturesSkipped,
		"reversed", result.Reversed,
		"errors", result.Errors,
	)
	return result, nil
}

func (s *ScheduleImportService) importVenue(ctx context.Context, ext ExternalVenue, result *ScheduleImportResult) (string, error) {
	if ext.ExternalID == 0 || strings.TrimSpace(ext.Name) == "" {
		return "", fmt.Errorf("%w: venue id and name are required", ErrInvalidInput)
	}

	match, err := s.venues.ResolveVenue(ctx, VenueQuery{
		Provider:        s.cfg.Provider,
		ProviderVenueID: ext.ExternalID,
		Name:            ext.Name,
		City:            ext.City,
	})
	if err != nil {
		return "", err
	}

	if match.Found() && !match.Ambiguous {
		existing := match.Venue
		next := existing
		// Only ids the provider owns are refreshed; curated names stay.
		if match.Tier == matching.ExactMatch {
			if ext.Capacity > 0 {
				next.Capacity = ext.Capacity
			}
			if next.ImageURL == "" {
				next.ImageURL = strings.TrimSpace(ext.ImageURL)
			}
		}
		if next.Capacity == existing.Capacity && next.ImageURL == existing.ImageURL {
			result.VenuesSkipped++
			return existing.ID, nil
		}
		stored, err := s.venueRepo.Upsert(ctx, next)
		if err != nil {
			return "", fmt.Errorf("update venue: %w", err)
		}
		result.VenuesUpdated++
		return stored.ID, nil
	}

	stored, err := s.venueRepo.Upsert(ctx, venue.Venue{
		NameEN:          strings.TrimSpace(ext.Name),
		CityEN:          strings.TrimSpace(ext.City),
		Capacity:        ext.Capacity,
		ImageURL:        strings.TrimSpace(ext.ImageURL),
		ExternalVenueID: ext.ExternalID,
	})
	if err != nil {
		return "", fmt.Errorf("create venue: %w", err)
	}
	result.VenuesCreated++
	return stored.ID, nil
}

func (s *ScheduleImportService) importTeam(ctx context.Context, lg league.League, ext ExternalTeam, venueIDs map[int64]string, result *ScheduleImportResult) (team.Team, error) {
	if ext.ExternalID == 0 || strings.TrimSpace(ext.Name) == "" {
		return team.Team{}, fmt.Errorf("%w: team id and name are required", ErrInvalidInput)
	}

	existing, found, err := s.teamRepo.GetByExternalID(ctx, ext.ExternalID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by external id: %w", err)
	}
	if !found {
		existing, found, err = s.teamByName(ctx, lg, ext)
		if err != nil {
			return team.Team{}, err
		}
	}

	if !found {
		item := team.Team{
			NameEN:         strings.TrimSpace(ext.Name),
			Code:           strings.ToUpper(strings.TrimSpace(ext.Short)),
			Slug:           matching.Slugify(ext.Name),
			LogoURL:        strings.TrimSpace(ext.ImageURL),
			ExternalTeamID: ext.ExternalID,
			VenueID:        venueIDs[ext.VenueID],
			LeagueIDs:      []string{lg.ID},
		}
		if err := item.Validate(); err != nil {
			return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		stored, err := s.teamRepo.Upsert(ctx, item)
		if err != nil {
			return team.Team{}, fmt.Errorf("create team: %w", err)
		}
		result.TeamsCreated++
		return stored, nil
	}

	next := existing
	next.LeagueIDs = slices.Clone(existing.LeagueIDs)
	if next.ExternalTeamID == 0 {
		next.ExternalTeamID = ext.ExternalID
	}
	if !next.InLeague(lg.ID) {
		next.LeagueIDs = append(next.LeagueIDs, lg.ID)
	}
	if next.VenueID == "" {
		next.VenueID = venueIDs[ext.VenueID]
	}
	if next.LogoURL == "" {
		next.LogoURL = strings.TrimSpace(ext.ImageURL)
	}
	if next.ExternalTeamID == existing.ExternalTeamID &&
		slices.Equal(next.LeagueIDs, existing.LeagueIDs) &&
		next.VenueID == existing.VenueID &&
		next.LogoURL == existing.LogoURL {
		result.TeamsSkipped++
		return existing, nil
	}

	stored, err := s.teamRepo.Upsert(ctx, next)
	if err != nil {
		return team.Team{}, fmt.Errorf("update team: %w", err)
	}
	result.TeamsUpdated++
	return stored, nil
}

// teamByName attaches a provider team to a curated team that has no
// external id yet. Only reviewed-quality tiers are trusted.
func (s *ScheduleImportService) teamByName(ctx context.Context, lg league.League, ext ExternalTeam) (team.Team, bool, error) {
	match, err := s.teams.ResolveTeam(ctx, ext.Name, TeamScope{LeagueID: lg.ID})
	if err != nil {
		return team.Team{}, false, err
	}
	if !match.Found() || match.Ambiguous || !match.Tier.AutoWritable() {
		return team.Team{}, false, nil
	}
	if match.Team.ExternalTeamID != 0 && match.Team.ExternalTeamID != ext.ExternalID {
		return team.Team{}, false, nil
	}
	return match.Team, true, nil
}

func (s *ScheduleImportService) importFixture(ctx context.Context, lg league.League, ext ExternalFixture, teamsByExt map[int64]team.Team, result *ScheduleImportResult) error {
	home, okHome := teamsByExt[ext.HomeTeamExternalID]
	away, okAway := teamsByExt[ext.AwayTeamExternalID]
	if !okHome || !okAway {
		return fmt.Errorf("%w: fixture %d teams %d/%d not imported", ErrNotFound, ext.ExternalID, ext.HomeTeamExternalID, ext.AwayTeamExternalID)
	}
	if ext.KickoffAt.IsZero() {
		return fmt.Errorf("%w: fixture %d has no kickoff", ErrInvalidInput, ext.ExternalID)
	}

	venueID := ""
	venueMatch, err := s.venues.ResolveVenue(ctx, VenueQuery{
		Provider:        s.cfg.Provider,
		ProviderVenueID: ext.VenueExternalID,
		HomeTeamID:      home.ID,
	})
	if err != nil {
		return err
	}
	if venueMatch.Found() && !venueMatch.Ambiguous {
		venueID = venueMatch.Venue.ID
	}

	desired := fixture.Fixture{
		LeagueID:          lg.ID,
		HomeTeamID:        home.ID,
		AwayTeamID:        away.ID,
		VenueID:           venueID,
		ExternalFixtureID: ext.ExternalID,
		KickoffAt:         ext.KickoffAt.UTC(),
		Status:            fixture.NormalizeStatus(ext.Status),
		Round:             strings.TrimSpace(ext.Round),
		Slug:              fixture.BuildSlug(home.Slug, away.Slug, ext.KickoffAt),
	}

	match, err := s.fixtures.ResolveFixture(ctx, home, away, desired.KickoffAt, lg.ID, s.cfg.Provider)
	if err != nil {
		return err
	}
	if match.Found && match.Reversed {
		// Orientation is corrected only by the operator flow.
		result.Reversed++
		s.logger.WarnContext(ctx, "stored fixture is reversed against provider",
			"fixture_id", match.Fixture.ID,
			"external_fixture_id", ext.ExternalID,
		)
		return nil
	}

	if !match.Found {
		if err := desired.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if _, err := s.fixtureRepo.Upsert(ctx, desired); err != nil {
			return fmt.Errorf("create fixture: %w", err)
		}
		result.FixturesCreated++
		return nil
	}

	existing := match.Fixture
	if sameScheduledFixture(existing, desired) {
		result.FixturesSkipped++
		return nil
	}
	desired.ID = existing.ID
	if desired.VenueID == "" {
		desired.VenueID = existing.VenueID
	}
	if _, err := s.fixtureRepo.Upsert(ctx, desired); err != nil {
		return fmt.Errorf("update fixture: %w", err)
	}
	result.FixturesUpdated++
	return nil
}

func sameScheduledFixture(existing, desired fixture.Fixture) bool {
	return existing.ExternalFixtureID == desired.ExternalFixtureID &&
		existing.KickoffAt.Equal(desired.KickoffAt) &&
		fixture.NormalizeStatus(existing.Status) == desired.Status &&
		existing.Round == desired.Round &&
		existing.Slug == desired.Slug &&
		(desired.VenueID == "" || existing.VenueID == desired.VenueID)
}
