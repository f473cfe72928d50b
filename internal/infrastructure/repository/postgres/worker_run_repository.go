package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

type WorkerRunRepository struct {
	db *sqlx.DB
}

func NewWorkerRunRepository(db *sqlx.DB) *WorkerRunRepository {
	return &WorkerRunRepository{db: db}
}

// Save writes a run by id; saving the same id again replaces the outcome.
func (r *WorkerRunRepository) Save(ctx context.Context, run workerrun.Run) error {
	insertModel := workerRunInsertModel{
		PublicID:     run.ID,
		Worker:       run.Worker,
		LeagueSlug:   run.LeagueSlug,
		Status:       string(run.Status),
		Stats:        jsonOf(run.Stats),
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt.UTC(),
		FinishedAt:   timeToNull(run.FinishedAt),
		TraceID:      run.TraceID,
	}
	query, args, err := qb.InsertModel("worker_runs", insertModel,
		qb.OnConflictUpdate("public_id", "status", "stats", "error_message", "finished_at", "trace_id"))
	if err != nil {
		return fmt.Errorf("build save worker run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save worker run: %w", err)
	}
	return nil
}

func (r *WorkerRunRepository) ListRecent(ctx context.Context, worker string, limit int) ([]workerrun.Run, error) {
	var conditions []qb.Condition
	if worker != "" {
		conditions = append(conditions, qb.Eq("worker", worker))
	}
	query, args, err := qb.Select("*").From("worker_runs").
		Where(conditions...).
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select worker runs query: %w", err)
	}

	var rows []workerRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select worker runs: %w", err)
	}

	out := make([]workerrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
