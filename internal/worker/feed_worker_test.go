package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

type fakeFeedSyncer struct {
	stats workerrun.Stats
	err   error
	calls int
}

func (f *fakeFeedSyncer) Sync(context.Context, usecase.FeedSource) (workerrun.Stats, error) {
	f.calls++
	return f.stats, f.err
}

type emptyFeed struct{}

func (emptyFeed) Products(context.Context, func(usecase.FeedProduct) error) error { return nil }

func TestFeedWorker_RunOnceRecordsRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	runs := memory.NewWorkerRunRepository()
	syncer := &fakeFeedSyncer{stats: workerrun.Stats{OffersCreated: 2, Unmatched: 1}}
	w := NewFeedWorker(syncer, emptyFeed{}, runs, nil, id.NewSequenceGenerator("feed"),
		metrics.NewRegistry(prometheus.NewRegistry()),
		clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)),
		FeedWorkerConfig{}, logging.NewNop())

	summary, err := w.RunOnce(ctx, nil)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if summary.Failed != 0 || summary.Totals.OffersCreated != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stored, _ := runs.ListRecent(ctx, FeedWorkerName, 0)
	if len(stored) != 1 || stored[0].LeagueSlug != feedRunScope || stored[0].ID != "feed-1" {
		t.Fatalf("unexpected stored runs: %+v", stored)
	}

	syncer.err = usecase.ErrDependencyUnavailable
	summary, err = w.RunOnce(ctx, nil)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !summary.AllFailed() || summary.Leagues[0].Status != workerrun.StatusFailed {
		t.Fatalf("expected failed run, got %+v", summary)
	}
}

func TestFeedWorker_NoSourceAndNoSchedule(t *testing.T) {
	t.Parallel()

	syncer := &fakeFeedSyncer{}
	w := NewFeedWorker(syncer, nil, memory.NewWorkerRunRepository(), nil, nil, nil, clockwork.NewFakeClock(),
		FeedWorkerConfig{}, logging.NewNop())

	if _, err := w.RunOnce(context.Background(), nil); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if syncer.calls != 0 {
		t.Fatalf("syncer must not run without a source")
	}

	if err := w.Start(); err != nil {
		t.Fatalf("start without schedule: %v", err)
	}
	if w.Status().IsScheduled {
		t.Fatalf("expected feed worker to stay unscheduled")
	}
}
