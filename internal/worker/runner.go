package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/lock"
	"github.com/riskibarqy/ticket-marketplace/internal/metrics"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const (
	DefaultSchedule   = "0 0,8-23 * * *"
	DefaultLeaseTTL   = 2 * time.Hour
	DefaultRunTimeout = 90 * time.Minute
)

// Locker hands out named leases. Implemented by lock.RedisLocker and
// lock.LocalLocker.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, bool, error)
}

// Status is what the status endpoint reports for a worker.
type Status struct {
	Worker      string      `json:"worker"`
	IsRunning   bool        `json:"isRunning"`
	IsScheduled bool        `json:"isScheduled"`
	NextRun     *time.Time  `json:"nextRun,omitempty"`
	LastRun     *RunSummary `json:"lastRun,omitempty"`
}

// LeagueSummary is one persisted league pass inside a run.
type LeagueSummary struct {
	RunID      string           `json:"run_id"`
	LeagueSlug string           `json:"league_slug"`
	LeagueName string           `json:"league_name,omitempty"`
	Status     workerrun.Status `json:"status"`
	Stats      workerrun.Stats  `json:"stats"`
	Error      string           `json:"error,omitempty"`
}

// RunSummary is the result of one trigger of a worker.
type RunSummary struct {
	Worker     string          `json:"worker"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Leagues    []LeagueSummary `json:"leagues"`
	Totals     workerrun.Stats `json:"totals"`
	Failed     int             `json:"failed"`
}

// AllFailed reports whether every league pass in the run failed.
func (s RunSummary) AllFailed() bool {
	return len(s.Leagues) > 0 && s.Failed == len(s.Leagues)
}

// runner owns the parts shared by every worker: the in-process running
// guard, the distributed lease, run persistence, metrics and the cron entry.
type runner struct {
	name       string
	runs       workerrun.Repository
	locker     Locker
	ids        id.Generator
	metrics    *metrics.Registry
	clock      clockwork.Clock
	leaseKey   string
	leaseTTL   time.Duration
	runTimeout time.Duration
	outputPath string
	logger     *logging.Logger

	running atomic.Bool

	mu       sync.Mutex
	cron     *cron.Cron
	entryID  cron.EntryID
	lastRun  *RunSummary
	inflight chan struct{}
}

type runnerOptions struct {
	Name       string
	LeaseKey   string
	LeaseTTL   time.Duration
	RunTimeout time.Duration
	OutputPath string
}

func newRunner(
	runs workerrun.Repository,
	locker Locker,
	ids id.Generator,
	registry *metrics.Registry,
	clock clockwork.Clock,
	opts runnerOptions,
	logger *logging.Logger,
) *runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if locker == nil {
		locker = lock.NewLocalLocker(clock)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.LeaseKey == "" {
		opts.LeaseKey = opts.Name
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = DefaultLeaseTTL
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}

	return &runner{
		name:       opts.Name,
		runs:       runs,
		locker:     locker,
		ids:        ids,
		metrics:    registry,
		clock:      clock,
		leaseKey:   opts.LeaseKey,
		leaseTTL:   opts.LeaseTTL,
		runTimeout: opts.RunTimeout,
		outputPath: opts.OutputPath,
		logger:     logger.Named(opts.Name),
	}
}

// enter marks the worker running and takes the lease. The returned func
// undoes both and must always be called.
func (r *runner) enter(ctx context.Context) (func(), error) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.WarnContext(ctx, "previous run still in progress, skipping trigger")
		r.metrics.ObserveSkipped(r.name)
		return nil, fmt.Errorf("%w: %s", usecase.ErrAlreadyRunning, r.name)
	}

	release, acquired, err := r.locker.TryAcquire(ctx, r.leaseKey, r.leaseTTL)
	if err != nil {
		r.running.Store(false)
		return nil, fmt.Errorf("%w: worker lease: %v", usecase.ErrDependencyUnavailable, err)
	}
	if !acquired {
		r.running.Store(false)
		r.logger.WarnContext(ctx, "lease held by another instance, skipping trigger", "lease_key", r.leaseKey)
		r.metrics.ObserveSkipped(r.name)
		return nil, fmt.Errorf("%w: lease %s held elsewhere", usecase.ErrAlreadyRunning, r.leaseKey)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.inflight = done
	r.mu.Unlock()

	r.metrics.SetRunning(r.name, true)
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			r.logger.WarnContext(ctx, "release worker lease failed", "error", err)
		}
		r.metrics.SetRunning(r.name, false)

		r.mu.Lock()
		r.inflight = nil
		r.mu.Unlock()
		r.running.Store(false)
		close(done)
	}, nil
}

// RunTimeout bounds a single run, scheduled or triggered.
func (r *runner) RunTimeout() time.Duration {
	return r.runTimeout
}

// record persists one league pass and feeds the metrics. Persistence
// failures are logged; the run result stands.
func (r *runner) record(ctx context.Context, leagueSlug string, stats workerrun.Stats, runErr error, startedAt, finishedAt time.Time) LeagueSummary {
	runID, err := r.ids.NewID()
	if err != nil {
		r.logger.WarnContext(ctx, "generate run id failed", "error", err)
	}

	status := workerrun.StatusCompleted
	errMessage := ""
	if runErr != nil {
		status = workerrun.StatusFailed
		errMessage = runErr.Error()
	}

	finished := finishedAt
	run := workerrun.Run{
		ID:           runID,
		Worker:       r.name,
		LeagueSlug:   leagueSlug,
		Status:       status,
		Stats:        stats,
		ErrorMessage: errMessage,
		StartedAt:    startedAt,
		FinishedAt:   &finished,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		run.TraceID = sc.TraceID().String()
	}

	if r.runs != nil && runID != "" {
		if err := r.runs.Save(ctx, run); err != nil {
			r.logger.WarnContext(ctx, "save worker run failed", "league_slug", leagueSlug, "error", err)
		}
	}
	r.metrics.ObserveRun(run, finishedAt.Sub(startedAt))

	return LeagueSummary{
		RunID:      runID,
		LeagueSlug: leagueSlug,
		Status:     status,
		Stats:      stats,
		Error:      errMessage,
	}
}

func (r *runner) finish(ctx context.Context, summary RunSummary) {
	r.mu.Lock()
	last := summary
	r.lastRun = &last
	r.mu.Unlock()

	if r.outputPath == "" {
		return
	}
	if err := writeSummary(r.outputPath, summary); err != nil {
		r.logger.WarnContext(ctx, "write run summary failed", "path", r.outputPath, "error", err)
	}
}

func writeSummary(path string, summary RunSummary) error {
	payload, err := sonic.ConfigStd.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}

// schedule registers job on a cron in loc. An empty spec leaves the worker
// unscheduled.
func (r *runner) schedule(spec string, loc *time.Location, job func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return fmt.Errorf("%w: %s already scheduled", usecase.ErrAlreadyRunning, r.name)
	}
	if spec == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	entryID, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", usecase.ErrInvalidInput, spec, err)
	}

	c.Start()
	r.cron = c
	r.entryID = entryID
	r.logger.Info("worker scheduled", "schedule", spec, "timezone", loc.String(), "next_run", c.Entry(entryID).Next)
	return nil
}

// stop halts the cron and waits until ctx is done for the in-flight run,
// whether the cron or an API trigger started it.
func (r *runner) stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	inflight := r.inflight
	r.mu.Unlock()
	if inflight == nil {
		return nil
	}
	select {
	case <-inflight:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *runner) status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Status{
		Worker:      r.name,
		IsRunning:   r.running.Load(),
		IsScheduled: r.cron != nil,
	}
	if r.cron != nil {
		if next := r.cron.Entry(r.entryID).Next; !next.IsZero() {
			out.NextRun = &next
		}
	}
	if r.lastRun != nil {
		last := *r.lastRun
		out.LastRun = &last
	}
	return out
}
