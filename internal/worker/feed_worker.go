package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const (
	FeedWorkerName = "p1_feed_prices"
	// feedRunScope labels feed runs, which are not split per league.
	feedRunScope = "all"
)

// FeedSyncer imports one affiliate feed. Implemented by
// usecase.FeedPriceService.
type FeedSyncer interface {
	Sync(ctx context.Context, source usecase.FeedSource) (workerrun.Stats, error)
}

type FeedWorkerConfig struct {
	// Schedule is empty when the feed is only imported on demand.
	Schedule   string
	Location   *time.Location
	LeaseKey   string
	LeaseTTL   time.Duration
	RunTimeout time.Duration
}

type FeedWorker struct {
	*runner
	syncer FeedSyncer
	source usecase.FeedSource
	cfg    FeedWorkerConfig
}

func NewFeedWorker(
	syncer FeedSyncer,
	source usecase.FeedSource,
	runs workerrun.Repository,
	locker Locker,
	ids id.Generator,
	registry *metrics.Registry,
	clock clockwork.Clock,
	cfg FeedWorkerConfig,
	logger *logging.Logger,
) *FeedWorker {
	return &FeedWorker{
		runner: newRunner(runs, locker, ids, registry, clock, runnerOptions{
			Name:       FeedWorkerName,
			LeaseKey:   cfg.LeaseKey,
			LeaseTTL:   cfg.LeaseTTL,
			RunTimeout: cfg.RunTimeout,
		}, logger),
		syncer: syncer,
		source: source,
		cfg:    cfg,
	}
}

// RunOnce imports source, or the configured source when source is nil.
func (w *FeedWorker) RunOnce(ctx context.Context, source usecase.FeedSource) (RunSummary, error) {
	if source == nil {
		source = w.source
	}
	if source == nil {
		return RunSummary{}, usecase.ErrInvalidInput
	}

	leave, err := w.enter(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	defer leave()

	summary := RunSummary{Worker: w.name, StartedAt: w.clock.Now()}
	stats, syncErr := w.syncer.Sync(ctx, source)
	summary.FinishedAt = w.clock.Now()

	run := w.record(ctx, feedRunScope, stats, syncErr, summary.StartedAt, summary.FinishedAt)
	summary.Leagues = append(summary.Leagues, run)
	summary.Totals = stats
	if syncErr != nil {
		summary.Failed = 1
		w.logger.ErrorContext(ctx, "feed import failed", "error", syncErr)
	} else {
		w.logger.InfoContext(ctx, "feed import finished",
			"matches_updated", stats.MatchesUpdated,
			"unmatched", stats.Unmatched,
			"offers_created", stats.OffersCreated,
			"offers_updated", stats.OffersUpdated,
			"errors", stats.Errors,
		)
	}

	w.finish(ctx, summary)
	return summary, nil
}

// Start schedules the feed import. It is a no-op without a schedule.
func (w *FeedWorker) Start() error {
	return w.schedule(w.cfg.Schedule, w.cfg.Location, func(ctx context.Context) {
		if _, err := w.RunOnce(ctx, nil); err != nil {
			w.logger.WarnContext(ctx, "scheduled feed import not run", "error", err)
		}
	})
}

func (w *FeedWorker) Stop(ctx context.Context) error {
	return w.stop(ctx)
}

func (w *FeedWorker) Status() Status {
	return w.status()
}
