package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const PriceWorkerName = "hellotickets_prices"

// LeagueSyncer reconciles a list of leagues and reports one result per
// league. Implemented by usecase.PriceSyncService.
type LeagueSyncer interface {
	SyncLeagues(ctx context.Context, leagueSlugs []string) []usecase.LeagueSyncResult
}

type PriceWorkerConfig struct {
	Leagues    []string
	Schedule   string
	Location   *time.Location
	LeaseKey   string
	LeaseTTL   time.Duration
	RunTimeout time.Duration
	OutputPath string
}

// PriceWorker runs the ticket API reconciliation on a cron schedule or on
// demand. Only one run is active per process, and per lease when the lease
// is shared.
type PriceWorker struct {
	*runner
	syncer LeagueSyncer
	cfg    PriceWorkerConfig
}

func NewPriceWorker(
	syncer LeagueSyncer,
	runs workerrun.Repository,
	locker Locker,
	ids id.Generator,
	registry *metrics.Registry,
	clock clockwork.Clock,
	cfg PriceWorkerConfig,
	logger *logging.Logger,
) *PriceWorker {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &PriceWorker{
		runner: newRunner(runs, locker, ids, registry, clock, runnerOptions{
			Name:       PriceWorkerName,
			LeaseKey:   cfg.LeaseKey,
			LeaseTTL:   cfg.LeaseTTL,
			RunTimeout: cfg.RunTimeout,
			OutputPath: cfg.OutputPath,
		}, logger),
		syncer: syncer,
		cfg:    cfg,
	}
}

// RunOnce reconciles leagues, or the configured leagues when none are given.
// Failed leagues are reported in the summary; the error is reserved for
// runs that could not start.
func (w *PriceWorker) RunOnce(ctx context.Context, leagues []string) (RunSummary, error) {
	if len(leagues) == 0 {
		leagues = w.cfg.Leagues
	}
	if len(leagues) == 0 {
		return RunSummary{}, fmt.Errorf("%w: no leagues to process", usecase.ErrInvalidInput)
	}

	leave, err := w.enter(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	defer leave()

	summary := RunSummary{Worker: w.name, StartedAt: w.clock.Now()}
	w.logger.InfoContext(ctx, "price update started", "leagues", leagues)

	for _, result := range w.syncer.SyncLeagues(ctx, leagues) {
		league := w.record(ctx, result.LeagueSlug, result.Stats, result.Err, result.StartedAt, result.FinishedAt)
		league.LeagueName = result.LeagueName
		if result.Err != nil {
			summary.Failed++
		}
		summary.Totals.Add(result.Stats)
		summary.Leagues = append(summary.Leagues, league)
	}
	summary.FinishedAt = w.clock.Now()

	w.logger.InfoContext(ctx, "price update finished",
		"leagues", len(summary.Leagues),
		"failed", summary.Failed,
		"api_calls", summary.Totals.APICalls,
		"matches_updated", summary.Totals.MatchesUpdated,
		"offers_created", summary.Totals.OffersCreated,
		"offers_updated", summary.Totals.OffersUpdated,
		"errors", summary.Totals.Errors,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
	w.finish(ctx, summary)
	return summary, nil
}

// Start schedules RunOnce on the configured cron expression.
func (w *PriceWorker) Start() error {
	return w.schedule(w.cfg.Schedule, w.cfg.Location, func(ctx context.Context) {
		if _, err := w.RunOnce(ctx, nil); err != nil && !errors.Is(err, usecase.ErrAlreadyRunning) {
			w.logger.ErrorContext(ctx, "scheduled price update failed", "error", err)
		}
	})
}

func (w *PriceWorker) Stop(ctx context.Context) error {
	return w.stop(ctx)
}

func (w *PriceWorker) Status() Status {
	return w.status()
}
