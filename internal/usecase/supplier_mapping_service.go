package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

// SupplierMappingService is the only writer of team supplier_info and fixture
// supplier references. It loads the entity, applies the find-or-update rule
// and persists only when something changed.
type SupplierMappingService struct {
	teamRepo    team.Repository
	fixtureRepo fixture.Repository
	logger      *logging.Logger
}

func NewSupplierMappingService(teamRepo team.Repository, fixtureRepo fixture.Repository, logger *logging.Logger) *SupplierMappingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SupplierMappingService{
		teamRepo:    teamRepo,
		fixtureRepo: fixtureRepo,
		logger:      logger,
	}
}

func (s *SupplierMappingService) UpsertTeamMapping(ctx context.Context, teamID string, entry team.SupplierInfo) (supplier.Change, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SupplierMappingService.UpsertTeamMapping")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return supplier.ChangeNone, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(entry.SupplierID) == "" || strings.TrimSpace(entry.SupplierTeamName) == "" {
		return supplier.ChangeNone, fmt.Errorf("%w: supplier id and team name are required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return supplier.ChangeNone, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return supplier.ChangeNone, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	next, change := team.UpsertSupplierInfo(item.SupplierInfo, entry)
	if !change.Changed() {
		return change, nil
	}
	if err := s.teamRepo.UpdateSupplierInfo(ctx, teamID, next); err != nil {
		return supplier.ChangeNone, fmt.Errorf("update team supplier info: %w", err)
	}

	s.logger.InfoContext(ctx, "team supplier mapping written",
		"team_id", teamID,
		"supplier_id", entry.SupplierID,
		"supplier_team_name", entry.SupplierTeamName,
		"change", change.String(),
	)
	return change, nil
}

func (s *SupplierMappingService) UpsertFixtureMapping(ctx context.Context, fixtureID string, entry fixture.SupplierRef) (supplier.Change, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SupplierMappingService.UpsertFixtureMapping")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return supplier.ChangeNone, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(entry.SupplierID) == "" {
		return supplier.ChangeNone, fmt.Errorf("%w: supplier id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return supplier.ChangeNone, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return supplier.ChangeNone, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}

	return s.applyFixtureMapping(ctx, item, entry)
}

// ApplyFixtureMapping is UpsertFixtureMapping for a fixture the caller has
// just loaded, saving the extra read in batch loops.
func (s *SupplierMappingService) ApplyFixtureMapping(ctx context.Context, item fixture.Fixture, entry fixture.SupplierRef) (supplier.Change, error) {
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(entry.SupplierID) == "" {
		return supplier.ChangeNone, fmt.Errorf("%w: fixture id and supplier id are required", ErrInvalidInput)
	}
	return s.applyFixtureMapping(ctx, item, entry)
}

func (s *SupplierMappingService) applyFixtureMapping(ctx context.Context, item fixture.Fixture, entry fixture.SupplierRef) (supplier.Change, error) {
	next, change := fixture.UpsertSupplierRef(item.SupplierRefs, entry)
	if !change.Changed() {
		return change, nil
	}
	if err := s.fixtureRepo.UpdateSupplierRefs(ctx, item.ID, next); err != nil {
		return supplier.ChangeNone, fmt.Errorf("update fixture supplier refs: %w", err)
	}

	s.logger.DebugContext(ctx, "fixture supplier mapping written",
		"fixture_id", item.ID,
		"supplier_id", entry.SupplierID,
		"supplier_external_id", entry.SupplierExternalID,
		"change", change.String(),
	)
	return change, nil
}

// RecordTeamMatch persists the supplier name behind a resolver hit so the
// next lookup takes the supplier-mapping tier. Tiers that are not
// auto-writable are left for review; ambiguous hits are a mapping conflict.
func (s *SupplierMappingService) RecordTeamMatch(ctx context.Context, match TeamMatch, entry team.SupplierInfo) (supplier.Change, error) {
	if !match.Found() {
		return supplier.ChangeNone, nil
	}
	if match.Ambiguous {
		ids := make([]string, 0, len(match.Candidates))
		for _, candidate := range match.Candidates {
			ids = append(ids, candidate.ID)
		}
		return supplier.ChangeNone, fmt.Errorf("%w: %q matched teams %s at tier %s",
			ErrMappingConflict, entry.SupplierTeamName, strings.Join(ids, ","), match.Tier)
	}
	if !match.Tier.AutoWritable() {
		s.logger.InfoContext(ctx, "team match needs review before mapping",
			"team_id", match.Team.ID,
			"supplier_team_name", entry.SupplierTeamName,
			"tier", match.Tier.String(),
			"reason", match.Reason,
		)
		return supplier.ChangeNone, nil
	}
	return s.UpsertTeamMapping(ctx, match.Team.ID, entry)
}

// RecordFirstTeamMatch is RecordTeamMatch for sources that spell one team
// several ways. The first spelling recorded for a supplier is kept, so
// alternating spellings never rewrite the team.
func (s *SupplierMappingService) RecordFirstTeamMatch(ctx context.Context, match TeamMatch, entry team.SupplierInfo) (supplier.Change, error) {
	if !match.Found() || match.Ambiguous || !match.Tier.AutoWritable() {
		return s.RecordTeamMatch(ctx, match, entry)
	}

	current, exists, err := s.teamRepo.GetByID(ctx, match.Team.ID)
	if err != nil {
		return supplier.ChangeNone, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return supplier.ChangeNone, fmt.Errorf("%w: team=%s", ErrNotFound, match.Team.ID)
	}
	if recorded, ok := current.SupplierEntry(entry.SupplierID); ok && recorded.SupplierTeamName != "" {
		return supplier.ChangeNone, nil
	}
	return s.UpsertTeamMapping(ctx, match.Team.ID, entry)
}
