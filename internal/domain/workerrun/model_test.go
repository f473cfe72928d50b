package workerrun

import (
	"fmt"
	"testing"
)

func TestStats_AddDetailCapped(t *testing.T) {
	t.Parallel()

	var stats Stats
	for i := 0; i < MaxDetails+10; i++ {
		stats.AddDetail(Detail{Reference: fmt.Sprintf("perf-%d", i), Action: "skipped"})
	}
	if len(stats.Details) != MaxDetails {
		t.Fatalf("expected %d details, got %d", MaxDetails, len(stats.Details))
	}
	if stats.Details[0].Reference != "perf-0" {
		t.Fatalf("expected first details to be kept, got %s", stats.Details[0].Reference)
	}
}

func TestStats_AddAndWrites(t *testing.T) {
	t.Parallel()

	total := Stats{MatchesUpdated: 1, OffersSkipped: 2}
	total.Add(Stats{OffersCreated: 1, MinPriceUpdates: 1, TeamMappings: 1, Errors: 1})
	if total.Writes() != 4 {
		t.Fatalf("expected 4 writes, got %d", total.Writes())
	}
	if total.Errors != 1 || total.OffersSkipped != 2 {
		t.Fatalf("unexpected totals: %+v", total)
	}
}
