package postgres

import (
	"database/sql"
	"time"
)

type supplierTableModel struct {
	ID           int64                         `db:"id"`
	PublicID     string                        `db:"public_id"`
	Name         string                        `db:"name"`
	Slug         string                        `db:"slug"`
	Type         string                        `db:"type"`
	IsActive     bool                          `db:"is_active"`
	SyncEnabled  bool                          `db:"sync_enabled"`
	SyncMethod   string                        `db:"sync_method"`
	SyncSchedule string                        `db:"sync_schedule"`
	LastSyncAt   sql.NullTime                  `db:"last_sync_at"`
	Priority     int                           `db:"priority"`
	Metadata     jsonColumn[map[string]string] `db:"metadata"`
	CreatedAt    time.Time                     `db:"created_at"`
	UpdatedAt    time.Time                     `db:"updated_at"`
	DeletedAt    *time.Time                    `db:"deleted_at"`
}
