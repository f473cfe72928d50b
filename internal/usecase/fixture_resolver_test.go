package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
)

func seedTeamByID(t *testing.T, id string) team.Team {
	t.Helper()
	for _, item := range memory.SeedTeams() {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("seed team %s not found", id)
	return team.Team{}
}

func TestFixtureResolver_FindsWithinToleranceBothOrders(t *testing.T) {
	t.Parallel()

	repo := memory.NewFixtureRepository(memory.SeedFixtures())
	resolver := NewFixtureResolver(repo, FixtureTolerance{Default: 72 * time.Hour})
	dortmund := seedTeamByID(t, memory.TeamIDDortmund)
	bayern := seedTeamByID(t, memory.TeamIDBayern)
	feedDate := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	got, err := resolver.ResolveFixture(context.Background(), dortmund, bayern, feedDate, memory.LeagueIDBundesliga, "p1")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	if !got.Found || got.Reversed || got.Fixture.ID != memory.FixtureIDDortmundBayern {
		t.Fatalf("expected canonical match, got %+v", got)
	}
	if got.DateDelta != 41*time.Hour+30*time.Minute {
		t.Fatalf("unexpected date delta: %s", got.DateDelta)
	}

	got, err = resolver.ResolveFixture(context.Background(), bayern, dortmund, feedDate, memory.LeagueIDBundesliga, "p1")
	if err != nil {
		t.Fatalf("resolve reversed fixture: %v", err)
	}
	if !got.Found || !got.Reversed || got.Fixture.ID != memory.FixtureIDDortmundBayern {
		t.Fatalf("expected reversed match, got %+v", got)
	}
}

func TestFixtureResolver_OutsideWindowNotFound(t *testing.T) {
	t.Parallel()

	repo := memory.NewFixtureRepository(memory.SeedFixtures())
	resolver := NewFixtureResolver(repo, FixtureTolerance{Default: 72 * time.Hour})
	dortmund := seedTeamByID(t, memory.TeamIDDortmund)
	bayern := seedTeamByID(t, memory.TeamIDBayern)

	for _, date := range []time.Time{
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC),
	} {
		got, err := resolver.ResolveFixture(context.Background(), dortmund, bayern, date, memory.LeagueIDBundesliga, "")
		if err != nil {
			t.Fatalf("resolve fixture: %v", err)
		}
		if got.Found {
			t.Fatalf("expected no fixture for %s, got %+v", date, got.Fixture)
		}
		got, err = resolver.ResolveFixture(context.Background(), bayern, dortmund, date, memory.LeagueIDBundesliga, "")
		if err != nil {
			t.Fatalf("resolve reversed fixture: %v", err)
		}
		if got.Found {
			t.Fatalf("expected no reversed fixture for %s", date)
		}
	}
}

func TestFixtureResolver_PerProviderTolerance(t *testing.T) {
	t.Parallel()

	repo := memory.NewFixtureRepository(memory.SeedFixtures())
	resolver := NewFixtureResolver(repo, FixtureTolerance{
		Default:    72 * time.Hour,
		ByProvider: map[string]time.Duration{"hellotickets": 24 * time.Hour},
	})
	dortmund := seedTeamByID(t, memory.TeamIDDortmund)
	bayern := seedTeamByID(t, memory.TeamIDBayern)
	feedDate := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	got, err := resolver.ResolveFixture(context.Background(), dortmund, bayern, feedDate, memory.LeagueIDBundesliga, "HelloTickets")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	if got.Found {
		t.Fatalf("41h delta must be outside the 24h hellotickets window")
	}
	if resolver.Tolerance("sportmonks") != 72*time.Hour {
		t.Fatalf("unexpected default tolerance: %s", resolver.Tolerance("sportmonks"))
	}
}

func TestFixtureResolver_ClosestKickoffWins(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ID: "far", LeagueID: "l", HomeTeamID: "a", AwayTeamID: "b", KickoffAt: base.Add(-48 * time.Hour), Slug: "far"},
		{ID: "near", LeagueID: "l", HomeTeamID: "a", AwayTeamID: "b", KickoffAt: base.Add(2 * time.Hour), Slug: "near"},
	})
	resolver := NewFixtureResolver(repo, FixtureTolerance{})

	got, err := resolver.ResolveFixture(context.Background(), team.Team{ID: "a"}, team.Team{ID: "b"}, base, "l", "")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	if got.Fixture.ID != "near" {
		t.Fatalf("expected closest kickoff, got %s", got.Fixture.ID)
	}
}

func TestFixtureResolver_CorrectReversed(t *testing.T) {
	t.Parallel()

	repo := memory.NewFixtureRepository(memory.SeedFixtures())
	resolver := NewFixtureResolver(repo, FixtureTolerance{})
	dortmund := seedTeamByID(t, memory.TeamIDDortmund)
	bayern := seedTeamByID(t, memory.TeamIDBayern)
	date := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	straight, err := resolver.ResolveFixture(context.Background(), dortmund, bayern, date, memory.LeagueIDBundesliga, "")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	if _, err := resolver.CorrectReversed(context.Background(), straight, dortmund, bayern); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non reversed match, got %v", err)
	}

	reversed, err := resolver.ResolveFixture(context.Background(), bayern, dortmund, date, memory.LeagueIDBundesliga, "")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	corrected, err := resolver.CorrectReversed(context.Background(), reversed, bayern, dortmund)
	if err != nil {
		t.Fatalf("correct reversed: %v", err)
	}
	if corrected.HomeTeamID != memory.TeamIDBayern || corrected.Slug != "bayern-munich-vs-borussia-dortmund-2026-02-28" {
		t.Fatalf("unexpected corrected fixture: %+v", corrected)
	}

	stored, _, _ := repo.GetByID(context.Background(), memory.FixtureIDDortmundBayern)
	if stored.HomeTeamID != memory.TeamIDBayern || stored.AwayTeamID != memory.TeamIDDortmund {
		t.Fatalf("expected stored fixture to be swapped, got %+v", stored)
	}
}

func TestFixtureResolver_InvalidInput(t *testing.T) {
	t.Parallel()

	resolver := NewFixtureResolver(memory.NewFixtureRepository(nil), FixtureTolerance{})
	_, err := resolver.ResolveFixture(context.Background(), team.Team{}, team.Team{ID: "b"}, time.Now(), "l", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
