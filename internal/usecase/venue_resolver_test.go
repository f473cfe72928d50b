package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/matching"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
)

const testVenueRemapYAML = `
providers:
  sportmonks:
    - from: 343326
      to: 1031
      note: signal iduna re-minted id
  P1:
    - from: 77
      to: 5
`

func newSeedVenueResolver(t *testing.T) *VenueResolver {
	t.Helper()

	remap, err := ParseVenueRemap([]byte(testVenueRemapYAML))
	if err != nil {
		t.Fatalf("parse venue remap: %v", err)
	}
	venues := append(memory.SeedVenues(), venue.Venue{
		ID: "venue-p1-only", NameEN: "Villa Park", CityEN: "Birmingham", ExternalVenueID: 9000,
		ExternalIDs: map[string]int64{"p1": 5},
	})
	return NewVenueResolver(
		memory.NewVenueRepository(venues),
		memory.NewTeamRepository(memory.SeedTeams()),
		VenueResolverOptions{PrimaryProvider: "sportmonks", Remap: remap},
	)
}

func TestVenueResolver_Tiers(t *testing.T) {
	t.Parallel()

	resolver := newSeedVenueResolver(t)
	cases := []struct {
		name     string
		query    VenueQuery
		wantID   string
		wantTier matching.Tier
	}{
		{name: "direct", query: VenueQuery{Provider: "sportmonks", ProviderVenueID: 204}, wantID: "venue-emirates", wantTier: matching.ExactMatch},
		{name: "secondary provider id", query: VenueQuery{Provider: "p1", ProviderVenueID: 5}, wantID: "venue-p1-only", wantTier: matching.ExactMatch},
		{name: "remapped", query: VenueQuery{Provider: "sportmonks", ProviderVenueID: 343326}, wantID: "venue-signal-iduna", wantTier: matching.RemappedMatch},
		{name: "remapped secondary", query: VenueQuery{Provider: "p1", ProviderVenueID: 77}, wantID: "venue-p1-only", wantTier: matching.RemappedMatch},
		{name: "name and city", query: VenueQuery{Provider: "sportmonks", ProviderVenueID: 1, Name: "Santiago Bernabeu", City: "Madrid"}, wantID: "venue-bernabeu", wantTier: matching.HeuristicMatch},
		{name: "home team", query: VenueQuery{Name: "Unknown Ground", HomeTeamID: memory.TeamIDChelsea}, wantID: "venue-stamford-bridge", wantTier: matching.HeuristicMatch},
	}

	for _, tc := range cases {
		got, err := resolver.ResolveVenue(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("%s: resolve venue: %v", tc.name, err)
		}
		if got.Tier != tc.wantTier || got.Venue.ID != tc.wantID {
			t.Fatalf("%s: got venue=%s tier=%s (%s), want venue=%s tier=%s",
				tc.name, got.Venue.ID, got.Tier, got.Reason, tc.wantID, tc.wantTier)
		}
	}
}

func TestVenueResolver_CityMismatchSkipsNameTier(t *testing.T) {
	t.Parallel()

	resolver := newSeedVenueResolver(t)
	got, err := resolver.ResolveVenue(context.Background(), VenueQuery{Name: "Emirates Stadium", City: "Dubai"})
	if err != nil {
		t.Fatalf("resolve venue: %v", err)
	}
	if got.Found() {
		t.Fatalf("expected no match, got %s", got.Venue.ID)
	}

	if _, err := resolver.ResolveVenue(context.Background(), VenueQuery{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseVenueRemap_RejectsConflicts(t *testing.T) {
	t.Parallel()

	conflicting := `
providers:
  sportmonks:
    - from: 1
      to: 2
    - from: 1
      to: 3
`
	if _, err := ParseVenueRemap([]byte(conflicting)); err == nil {
		t.Fatalf("expected conflicting remap to be rejected")
	}
	if _, err := ParseVenueRemap([]byte("providers:\n  x:\n    - from: 4\n      to: 4\n")); err == nil {
		t.Fatalf("expected self mapping to be rejected")
	}
}

func TestLoadVenueRemapFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "venue_remap.yaml")
	if err := os.WriteFile(path, []byte(testVenueRemapYAML), 0o600); err != nil {
		t.Fatalf("write remap file: %v", err)
	}
	remap, err := LoadVenueRemapFile(path)
	if err != nil {
		t.Fatalf("load remap file: %v", err)
	}
	if remap.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", remap.Len())
	}
	if to, ok := remap.Lookup("p1", 77); !ok || to != 5 {
		t.Fatalf("expected case-insensitive provider lookup, got %d %v", to, ok)
	}

	empty, err := LoadVenueRemapFile("")
	if err != nil || empty.Len() != 0 {
		t.Fatalf("expected empty remap for empty path, got %v %d", err, empty.Len())
	}
}
