package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/lock"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

type fakeLeagueSyncer struct {
	started chan struct{}
	unblock chan struct{}
	results func(slugs []string) []usecase.LeagueSyncResult
}

func (f *fakeLeagueSyncer) SyncLeagues(ctx context.Context, slugs []string) []usecase.LeagueSyncResult {
	if f.started != nil {
		close(f.started)
	}
	if f.unblock != nil {
		<-f.unblock
	}
	return f.results(slugs)
}

func okResults(at time.Time) func([]string) []usecase.LeagueSyncResult {
	return func(slugs []string) []usecase.LeagueSyncResult {
		out := make([]usecase.LeagueSyncResult, 0, len(slugs))
		for _, slug := range slugs {
			out = append(out, usecase.LeagueSyncResult{
				LeagueSlug: slug,
				Stats:      workerrun.Stats{APICalls: 2, OffersCreated: 1},
				StartedAt:  at,
				FinishedAt: at.Add(time.Second),
			})
		}
		return out
	}
}

func newTestPriceWorker(t *testing.T, syncer LeagueSyncer, locker Locker, cfg PriceWorkerConfig) (*PriceWorker, *memory.WorkerRunRepository, *metrics.Registry) {
	t.Helper()

	runs := memory.NewWorkerRunRepository()
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	if locker == nil {
		locker = lock.NewLocalLocker(clock)
	}
	w := NewPriceWorker(syncer, runs, locker, id.NewSequenceGenerator("run"), registry, clock, cfg, logging.NewNop())
	return w, runs, registry
}

func TestPriceWorker_RunOncePersistsRunsAndSummary(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	results := okResults(at)
	syncer := &fakeLeagueSyncer{results: func(slugs []string) []usecase.LeagueSyncResult {
		out := results(slugs)
		out[1].Err = usecase.ErrNotFound
		return out
	}}
	output := filepath.Join(t.TempDir(), "out", "price-update.json")
	w, runs, registry := newTestPriceWorker(t, syncer, nil, PriceWorkerConfig{
		Leagues:    []string{"epl", "serie-a"},
		OutputPath: output,
	})

	summary, err := w.RunOnce(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summary.Leagues, 2)
	require.Equal(t, 1, summary.Failed)
	require.False(t, summary.AllFailed())
	require.Equal(t, 4, summary.Totals.APICalls)
	require.Equal(t, workerrun.StatusFailed, summary.Leagues[1].Status)

	stored, err := runs.ListRecent(context.Background(), PriceWorkerName, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var decoded RunSummary
	require.NoError(t, sonic.Unmarshal(raw, &decoded))
	require.Equal(t, "serie-a", decoded.Leagues[1].LeagueSlug)

	if got := testutil.ToFloat64(registry.RunsTotal.WithLabelValues(PriceWorkerName, "epl", "completed")); got != 1 {
		t.Fatalf("expected one completed epl run, got %v", got)
	}

	status := w.Status()
	if status.IsRunning || status.LastRun == nil || status.LastRun.Failed != 1 {
		t.Fatalf("unexpected status after run: %+v", status)
	}
}

func TestPriceWorker_OverlappingRunIsSkipped(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	syncer := &fakeLeagueSyncer{
		started: make(chan struct{}),
		unblock: make(chan struct{}),
		results: okResults(at),
	}
	w, _, registry := newTestPriceWorker(t, syncer, nil, PriceWorkerConfig{Leagues: []string{"epl"}})

	done := make(chan error, 1)
	go func() {
		_, err := w.RunOnce(context.Background(), nil)
		done <- err
	}()
	<-syncer.started

	if !w.Status().IsRunning {
		t.Fatalf("expected worker to report running")
	}
	_, err := w.RunOnce(context.Background(), nil)
	if !errors.Is(err, usecase.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(syncer.unblock)
	require.NoError(t, <-done)
	require.False(t, w.Status().IsRunning)
	if got := testutil.ToFloat64(registry.SkippedRuns.WithLabelValues(PriceWorkerName)); got != 1 {
		t.Fatalf("expected one skipped trigger, got %v", got)
	}
}

func TestPriceWorker_LeaseHeldElsewhereSkipsRun(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	shared := lock.NewLocalLocker(clock)
	release, ok, err := shared.TryAcquire(context.Background(), "price-lease", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	syncer := &fakeLeagueSyncer{results: okResults(clock.Now())}
	w, runs, _ := newTestPriceWorker(t, syncer, shared, PriceWorkerConfig{
		Leagues:  []string{"epl"},
		LeaseKey: "price-lease",
	})

	_, err = w.RunOnce(context.Background(), nil)
	if !errors.Is(err, usecase.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning while lease is held, got %v", err)
	}
	stored, _ := runs.ListRecent(context.Background(), "", 0)
	require.Empty(t, stored)

	require.NoError(t, release(context.Background()))
	_, err = w.RunOnce(context.Background(), nil)
	require.NoError(t, err)
}

func TestPriceWorker_RequiresLeagues(t *testing.T) {
	t.Parallel()

	w, _, _ := newTestPriceWorker(t, &fakeLeagueSyncer{}, nil, PriceWorkerConfig{})
	if _, err := w.RunOnce(context.Background(), nil); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPriceWorker_StartStopStatus(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	w, _, _ := newTestPriceWorker(t, &fakeLeagueSyncer{results: okResults(time.Now())}, nil, PriceWorkerConfig{
		Leagues:  []string{"epl"},
		Location: loc,
	})

	require.NoError(t, w.Start())
	status := w.Status()
	if !status.IsScheduled || status.NextRun == nil {
		t.Fatalf("expected a scheduled next run, got %+v", status)
	}
	if hour := status.NextRun.In(loc).Hour(); hour > 0 && hour < 8 {
		t.Fatalf("next run falls in the quiet hours: %v", status.NextRun)
	}
	if err := w.Start(); err == nil {
		t.Fatalf("expected second Start to fail")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	require.False(t, w.Status().IsScheduled)
}

func TestPriceWorker_InvalidSchedule(t *testing.T) {
	t.Parallel()

	w, _, _ := newTestPriceWorker(t, &fakeLeagueSyncer{}, nil, PriceWorkerConfig{
		Leagues:  []string{"epl"},
		Schedule: "every now and then",
	})
	if err := w.Start(); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	require.False(t, w.Status().IsScheduled)
}

func TestPriceWorker_StopWaitsForTriggeredRun(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	syncer := &fakeLeagueSyncer{
		started: make(chan struct{}),
		unblock: make(chan struct{}),
		results: okResults(at),
	}
	w, runs, _ := newTestPriceWorker(t, syncer, nil, PriceWorkerConfig{Leagues: []string{"epl"}})
	require.Equal(t, DefaultRunTimeout, w.RunTimeout())

	done := make(chan error, 1)
	go func() {
		_, err := w.RunOnce(context.Background(), nil)
		done <- err
	}()
	<-syncer.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Stop(short), context.DeadlineExceeded)

	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Stop(context.Background())
	}()
	close(syncer.unblock)

	require.NoError(t, <-done)
	require.NoError(t, <-stopped)
	stored, err := runs.ListRecent(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}
