package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

func TestReversedFixtureService_ListAndCorrect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kickoff := time.Date(2026, 4, 11, 14, 0, 0, 0, time.UTC)
	fixtures := append(memory.SeedFixtures(),
		fixture.Fixture{
			ID: "fixture-chelsea-arsenal", LeagueID: memory.LeagueIDPremierLeague,
			HomeTeamID: memory.TeamIDChelsea, AwayTeamID: memory.TeamIDArsenal,
			KickoffAt: kickoff, Status: fixture.StatusScheduled,
			Slug: fixture.BuildSlug("chelsea", "arsenal", kickoff),
			SupplierRefs: []fixture.SupplierRef{
				{SupplierID: memory.SupplierIDP1Travel, SupplierExternalID: "k1", Metadata: map[string]string{fixture.MetaReversed: "true"}},
				{SupplierID: memory.SupplierIDHelloTickets, SupplierExternalID: "perf-9"},
			},
		},
		fixture.Fixture{
			ID: "fixture-wolves-chelsea", LeagueID: memory.LeagueIDPremierLeague,
			HomeTeamID: memory.TeamIDWolves, AwayTeamID: memory.TeamIDChelsea,
			KickoffAt: kickoff, Status: fixture.StatusScheduled,
			Slug: fixture.BuildSlug("wolves", "chelsea", kickoff),
			SupplierRefs: []fixture.SupplierRef{
				{SupplierID: memory.SupplierIDP1Travel, SupplierExternalID: "k2", Metadata: map[string]string{fixture.MetaReversed: "true"}},
				{SupplierID: memory.SupplierIDHelloTickets, SupplierExternalID: "perf-10", Metadata: map[string]string{fixture.MetaReversed: "false"}},
			},
		},
	)

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	fixtureRepo := memory.NewFixtureRepository(fixtures)
	logger := logging.NewNop()
	service := NewReversedFixtureService(
		memory.NewLeagueRepository(memory.SeedLeagues()),
		teamRepo,
		fixtureRepo,
		NewFixtureResolver(fixtureRepo, FixtureTolerance{}),
		NewSupplierMappingService(teamRepo, fixtureRepo, logger),
		clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		logger,
	)

	reported, err := service.ListReported(ctx)
	if err != nil {
		t.Fatalf("list reported: %v", err)
	}
	if len(reported) != 1 || reported[0].Fixture.ID != "fixture-chelsea-arsenal" {
		t.Fatalf("expected only the consistently reversed fixture, got %+v", reported)
	}

	corrected, err := service.Correct(ctx, "fixture-chelsea-arsenal")
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if corrected.HomeTeamID != memory.TeamIDArsenal || corrected.Slug != "arsenal-vs-chelsea-2026-04-11" {
		t.Fatalf("unexpected corrected fixture: %+v", corrected)
	}

	stored, _, _ := fixtureRepo.GetByID(ctx, "fixture-chelsea-arsenal")
	ref, _ := stored.SupplierRef(memory.SupplierIDP1Travel)
	if ref.Metadata[fixture.MetaReversed] != "false" || ref.SupplierExternalID != "k1" {
		t.Fatalf("expected flag flipped and external id kept, got %+v", ref)
	}

	reported, err = service.ListReported(ctx)
	if err != nil {
		t.Fatalf("list reported: %v", err)
	}
	if len(reported) != 0 {
		t.Fatalf("expected nothing left to correct, got %d", len(reported))
	}

	if _, err := service.Correct(ctx, "fixture-wolves-chelsea"); err == nil {
		t.Fatalf("expected disagreeing suppliers to block correction")
	}
}
