package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

func TestRegistry_ObserveRun(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(prometheus.NewRegistry())
	finished := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg.ObserveRun(workerrun.Run{
		Worker:     "hellotickets_prices",
		LeagueSlug: "epl",
		Status:     workerrun.StatusCompleted,
		Stats:      workerrun.Stats{OffersCreated: 3, OffersSkipped: 2, APICalls: 20, Errors: 1},
		FinishedAt: &finished,
	}, 2*time.Second)

	if got := testutil.ToFloat64(reg.OffersWritten.WithLabelValues("hellotickets_prices", "epl", "created")); got != 3 {
		t.Fatalf("expected 3 created offers, got %v", got)
	}
	if got := testutil.ToFloat64(reg.RunsTotal.WithLabelValues("hellotickets_prices", "epl", "completed")); got != 1 {
		t.Fatalf("expected 1 completed run, got %v", got)
	}
	if got := testutil.ToFloat64(reg.LastSuccess.WithLabelValues("hellotickets_prices", "epl")); got != float64(finished.Unix()) {
		t.Fatalf("unexpected last success %v", got)
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	t.Parallel()

	var reg *Registry
	reg.ObserveSkipped("w")
	reg.SetRunning("w", true)
	reg.ObserveRun(workerrun.Run{}, time.Second)
}
