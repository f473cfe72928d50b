package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

type SupplierRepository struct {
	db *sqlx.DB
}

func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) GetBySlug(ctx context.Context, slug string) (supplier.Supplier, bool, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *SupplierRepository) GetByID(ctx context.Context, supplierID string) (supplier.Supplier, bool, error) {
	return r.getOne(ctx, "public_id", supplierID)
}

func (r *SupplierRepository) MarkSynced(ctx context.Context, supplierID string, at time.Time) error {
	query, args, err := qb.Update("suppliers").
		Set("last_sync_at", at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", supplierID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark supplier synced query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark supplier synced: %w", err)
	}
	return nil
}

func (r *SupplierRepository) getOne(ctx context.Context, column, value string) (supplier.Supplier, bool, error) {
	query, args, err := qb.Select("*").From("suppliers").
		Where(
			qb.Eq(column, value),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return supplier.Supplier{}, false, fmt.Errorf("build get supplier by %s query: %w", column, err)
	}

	var row supplierTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return supplier.Supplier{}, false, nil
		}
		return supplier.Supplier{}, false, fmt.Errorf("get supplier by %s: %w", column, err)
	}

	return supplier.Supplier{
		ID:       row.PublicID,
		Name:     row.Name,
		Slug:     row.Slug,
		Type:     row.Type,
		IsActive: row.IsActive,
		Sync: supplier.SyncConfig{
			Enabled:    row.SyncEnabled,
			Method:     row.SyncMethod,
			Schedule:   row.SyncSchedule,
			LastSyncAt: nullTimeToPtr(row.LastSyncAt),
		},
		Priority: row.Priority,
		Metadata: row.Metadata.V,
	}, true, nil
}
