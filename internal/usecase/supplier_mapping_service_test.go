package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

func TestSupplierMappingService_WolvesScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	fixtureRepo := memory.NewFixtureRepository(memory.SeedFixtures())
	resolver := NewTeamResolver(teamRepo, TeamResolverOptions{})
	service := NewSupplierMappingService(teamRepo, fixtureRepo, logging.NewNop())

	const supplierName = "Wolverhampton Wanderers FC"
	scope := TeamScope{LeagueID: memory.LeagueIDPremierLeague, SupplierID: memory.SupplierIDP1Travel}
	entry := team.SupplierInfo{SupplierID: memory.SupplierIDP1Travel, SupplierTeamName: supplierName}

	match, err := resolver.ResolveTeam(ctx, supplierName, scope)
	if err != nil {
		t.Fatalf("resolve team: %v", err)
	}
	if match.Team.ID != memory.TeamIDWolves {
		t.Fatalf("expected wolves, got %+v", match)
	}

	change, err := service.RecordTeamMatch(ctx, match, entry)
	if err != nil {
		t.Fatalf("record team match: %v", err)
	}
	if change != supplier.ChangeAppended {
		t.Fatalf("expected appended, got %s", change)
	}

	// Second lookup now hits the supplier-mapping tier.
	match, err = resolver.ResolveTeam(ctx, supplierName, scope)
	if err != nil {
		t.Fatalf("resolve team: %v", err)
	}
	if match.Reason != "supplier mapping" {
		t.Fatalf("expected supplier mapping tier, got %s", match.Reason)
	}

	writesBefore := teamRepo.Writes()
	change, err = service.RecordTeamMatch(ctx, match, entry)
	if err != nil {
		t.Fatalf("record team match again: %v", err)
	}
	if change != supplier.ChangeNone {
		t.Fatalf("expected no change, got %s", change)
	}
	if teamRepo.Writes() != writesBefore {
		t.Fatalf("identical mapping must not write")
	}

	stored, _, _ := teamRepo.GetByID(ctx, memory.TeamIDWolves)
	count := 0
	for _, info := range stored.SupplierInfo {
		if info.SupplierID == memory.SupplierIDP1Travel {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one p1 entry, got %d", count)
	}
}

func TestSupplierMappingService_UpdateInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	service := NewSupplierMappingService(teamRepo, memory.NewFixtureRepository(nil), nil)

	change, err := service.UpsertTeamMapping(ctx, memory.TeamIDArsenal, team.SupplierInfo{
		SupplierID:         memory.SupplierIDHelloTickets,
		SupplierTeamName:   "Arsenal",
		SupplierExternalID: "2001",
	})
	if err != nil {
		t.Fatalf("upsert team mapping: %v", err)
	}
	if change != supplier.ChangeUpdated {
		t.Fatalf("expected updated, got %s", change)
	}

	stored, _, _ := teamRepo.GetByID(ctx, memory.TeamIDArsenal)
	if len(stored.SupplierInfo) != 1 || stored.SupplierInfo[0].SupplierExternalID != "2001" {
		t.Fatalf("unexpected supplier info: %+v", stored.SupplierInfo)
	}
}

func TestSupplierMappingService_FixtureMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixtureRepo := memory.NewFixtureRepository(memory.SeedFixtures())
	service := NewSupplierMappingService(memory.NewTeamRepository(nil), fixtureRepo, nil)
	ref := fixture.SupplierRef{
		SupplierID:         memory.SupplierIDP1Travel,
		SupplierExternalID: "p1-123",
		Metadata:           map[string]string{fixture.MetaURL: "https://p1travel.com/x"},
	}

	change, err := service.UpsertFixtureMapping(ctx, memory.FixtureIDDortmundBayern, ref)
	if err != nil || change != supplier.ChangeAppended {
		t.Fatalf("expected appended, got %s %v", change, err)
	}
	change, err = service.UpsertFixtureMapping(ctx, memory.FixtureIDDortmundBayern, ref)
	if err != nil || change != supplier.ChangeNone {
		t.Fatalf("expected none, got %s %v", change, err)
	}

	if _, err := service.UpsertFixtureMapping(ctx, "missing", ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupplierMappingService_RecordTeamMatchGuards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	service := NewSupplierMappingService(teamRepo, memory.NewFixtureRepository(nil), nil)
	entry := team.SupplierInfo{SupplierID: "s", SupplierTeamName: "Sporting"}

	ambiguous := TeamMatch{
		Team:       team.Team{ID: "a"},
		Tier:       "normalized",
		Ambiguous:  true,
		Candidates: []team.Team{{ID: "a"}, {ID: "b"}},
	}
	if _, err := service.RecordTeamMatch(ctx, ambiguous, entry); !errors.Is(err, ErrMappingConflict) {
		t.Fatalf("expected ErrMappingConflict, got %v", err)
	}

	heuristic := TeamMatch{Team: team.Team{ID: memory.TeamIDArsenal}, Tier: "heuristic"}
	change, err := service.RecordTeamMatch(ctx, heuristic, entry)
	if err != nil || change != supplier.ChangeNone {
		t.Fatalf("heuristic match must not be written, got %s %v", change, err)
	}
	if teamRepo.Writes() != 0 {
		t.Fatalf("expected no writes, got %d", teamRepo.Writes())
	}
}
