package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

type workerRunTableModel struct {
	ID           int64                       `db:"id"`
	PublicID     string                      `db:"public_id"`
	Worker       string                      `db:"worker"`
	LeagueSlug   string                      `db:"league_slug"`
	Status       string                      `db:"status"`
	Stats        jsonColumn[workerrun.Stats] `db:"stats"`
	ErrorMessage string                      `db:"error_message"`
	StartedAt    time.Time                   `db:"started_at"`
	FinishedAt   sql.NullTime                `db:"finished_at"`
	TraceID      string                      `db:"trace_id"`
	CreatedAt    time.Time                   `db:"created_at"`
	UpdatedAt    time.Time                   `db:"updated_at"`
}

type workerRunInsertModel struct {
	PublicID     string                      `db:"public_id"`
	Worker       string                      `db:"worker"`
	LeagueSlug   string                      `db:"league_slug"`
	Status       string                      `db:"status"`
	Stats        jsonColumn[workerrun.Stats] `db:"stats"`
	ErrorMessage string                      `db:"error_message"`
	StartedAt    time.Time                   `db:"started_at"`
	FinishedAt   sql.NullTime                `db:"finished_at"`
	TraceID      string                      `db:"trace_id"`
}

func (row workerRunTableModel) toDomain() workerrun.Run {
	return workerrun.Run{
		ID:           row.PublicID,
		Worker:       row.Worker,
		LeagueSlug:   row.LeagueSlug,
		Status:       workerrun.Status(row.Status),
		Stats:        row.Stats.V,
		ErrorMessage: row.ErrorMessage,
		StartedAt:    row.StartedAt.UTC(),
		FinishedAt:   nullTimeToPtr(row.FinishedAt),
		TraceID:      row.TraceID,
	}
}
