package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the reference leagues and suppliers into an empty
// database. It is a no-op once any league exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM leagues WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count leagues for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO leagues (public_id, slug, name, country, external_league_id)
VALUES (:public_id, :slug, :name, :country, :external_league_id)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":          l.ID,
			"slug":               l.Slug,
			"name":               l.Name,
			"country":            l.Country,
			"external_league_id": int64ToNull(l.ExternalLeagueID),
		})
		if err != nil {
			return fmt.Errorf("bind seed league %s query: %w", l.Slug, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed league %s: %w", l.Slug, err)
		}
	}

	for _, s := range memory.SeedSuppliers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO suppliers (public_id, name, slug, type, is_active, sync_enabled, sync_method, sync_schedule, priority)
VALUES (:public_id, :name, :slug, :type, :is_active, :sync_enabled, :sync_method, :sync_schedule, :priority)
ON CONFLICT (slug) DO NOTHING`, map[string]any{
			"public_id":     s.ID,
			"name":          s.Name,
			"slug":          s.Slug,
			"type":          s.Type,
			"is_active":     s.IsActive,
			"sync_enabled":  s.Sync.Enabled,
			"sync_method":   s.Sync.Method,
			"sync_schedule": s.Sync.Schedule,
			"priority":      s.Priority,
		})
		if err != nil {
			return fmt.Errorf("bind seed supplier %s query: %w", s.Slug, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed supplier %s: %w", s.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
