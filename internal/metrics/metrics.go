package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

// Registry holds the reconciliation worker's Prometheus metrics.
type Registry struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	OffersWritten   *prometheus.CounterVec
	MatchesTotal    *prometheus.CounterVec
	APICallsTotal   *prometheus.CounterVec
	ItemErrorsTotal *prometheus.CounterVec
	SkippedRuns     *prometheus.CounterVec
	LastSuccess     *prometheus.GaugeVec
	Running         *prometheus.GaugeVec
}

// NewRegistry registers every metric on reg. A nil reg uses the default
// Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Registry{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_worker_runs_total",
				Help: "League passes by worker, league and final status",
			},
			[]string{"worker", "league", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_marketplace_worker_run_duration_seconds",
				Help:    "Duration of one league pass in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"worker", "league"},
		),
		OffersWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_offers_total",
				Help: "Offers touched by the reconciliation, by action",
			},
			[]string{"worker", "league", "action"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_fixture_matches_total",
				Help: "Fixtures reconciled, by outcome",
			},
			[]string{"worker", "league", "outcome"},
		),
		APICallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_supplier_api_calls_total",
				Help: "Calls made to supplier APIs",
			},
			[]string{"worker", "league"},
		),
		ItemErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_worker_item_errors_total",
				Help: "Per-item failures counted during league passes",
			},
			[]string{"worker", "league"},
		),
		SkippedRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_marketplace_worker_skipped_runs_total",
				Help: "Triggers skipped because a run was already in progress",
			},
			[]string{"worker"},
		),
		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ticket_marketplace_worker_last_success_timestamp_seconds",
				Help: "Unix time of the last successful league pass",
			},
			[]string{"worker", "league"},
		),
		Running: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ticket_marketplace_worker_running",
				Help: "1 while the worker is running",
			},
			[]string{"worker"},
		),
	}
}

// ObserveRun records a finished run.
func (r *Registry) ObserveRun(run workerrun.Run, took time.Duration) {
	if r == nil {
		return
	}
	worker, league := run.Worker, run.LeagueSlug
	r.RunsTotal.WithLabelValues(worker, league, string(run.Status)).Inc()
	r.RunDuration.WithLabelValues(worker, league).Observe(took.Seconds())

	stats := run.Stats
	r.OffersWritten.WithLabelValues(worker, league, "created").Add(float64(stats.OffersCreated))
	r.OffersWritten.WithLabelValues(worker, league, "updated").Add(float64(stats.OffersUpdated))
	r.OffersWritten.WithLabelValues(worker, league, "skipped").Add(float64(stats.OffersSkipped))
	r.MatchesTotal.WithLabelValues(worker, league, "updated").Add(float64(stats.MatchesUpdated))
	r.MatchesTotal.WithLabelValues(worker, league, "skipped").Add(float64(stats.MatchesSkipped))
	r.MatchesTotal.WithLabelValues(worker, league, "not_found").Add(float64(stats.MatchesNotFound))
	r.MatchesTotal.WithLabelValues(worker, league, "unmatched").Add(float64(stats.Unmatched))
	r.APICallsTotal.WithLabelValues(worker, league).Add(float64(stats.APICalls))
	r.ItemErrorsTotal.WithLabelValues(worker, league).Add(float64(stats.Errors))

	if run.Status == workerrun.StatusCompleted && run.FinishedAt != nil {
		r.LastSuccess.WithLabelValues(worker, league).Set(float64(run.FinishedAt.Unix()))
	}
}

func (r *Registry) ObserveSkipped(worker string) {
	if r == nil {
		return
	}
	r.SkippedRuns.WithLabelValues(worker).Inc()
}

func (r *Registry) SetRunning(worker string, running bool) {
	if r == nil {
		return
	}
	value := 0.0
	if running {
		value = 1
	}
	r.Running.WithLabelValues(worker).Set(value)
}
