package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

type VenueRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db, ids: id.NewUUIDGenerator()}
}

func (r *VenueRepository) List(ctx context.Context) ([]venue.Venue, error) {
	query, args, err := qb.Select("*").From("venues").
		Where(qb.IsNull("deleted_at")).
		OrderBy("name_en", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select venues query: %w", err)
	}

	var rows []venueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}

	out := make([]venue.Venue, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *VenueRepository) GetByID(ctx context.Context, venueID string) (venue.Venue, bool, error) {
	return r.getOne(ctx, "id", qb.Eq("public_id", venueID))
}

func (r *VenueRepository) GetByExternalID(ctx context.Context, externalVenueID int64) (venue.Venue, bool, error) {
	return r.getOne(ctx, "external id", qb.Eq("external_venue_id", externalVenueID))
}

// GetByProviderID looks a venue up by the id a given data provider uses for it.
func (r *VenueRepository) GetByProviderID(ctx context.Context, provider string, providerVenueID int64) (venue.Venue, bool, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	return r.getOne(ctx, "provider id", qb.Expr("(external_ids->>?)::bigint = ?", provider, providerVenueID))
}

func (r *VenueRepository) Upsert(ctx context.Context, item venue.Venue) (venue.Venue, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return venue.Venue{}, fmt.Errorf("begin tx upsert venue: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, found, err := r.findForUpsert(ctx, tx, item)
	if err != nil {
		return venue.Venue{}, err
	}

	var (
		query string
		args  []any
	)
	if found {
		item.ID = existing.PublicID
		builder, buildErr := qb.UpdateModel("venues", venueInsertFromDomain(item))
		if buildErr != nil {
			return venue.Venue{}, fmt.Errorf("build update venue query: %w", buildErr)
		}
		query, args, err = builder.
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Suffix("RETURNING *").
			ToSQL()
	} else {
		if item.ID == "" {
			if item.ID, err = r.ids.NewID(); err != nil {
				return venue.Venue{}, fmt.Errorf("generate venue id: %w", err)
			}
		}
		query, args, err = qb.InsertModel("venues", venueInsertFromDomain(item), "RETURNING *")
	}
	if err != nil {
		return venue.Venue{}, fmt.Errorf("build upsert venue query: %w", err)
	}

	var row venueTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return venue.Venue{}, fmt.Errorf("upsert venue: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return venue.Venue{}, fmt.Errorf("commit upsert venue tx: %w", err)
	}
	return row.toDomain(), nil
}

func (r *VenueRepository) findForUpsert(ctx context.Context, tx *sqlx.Tx, item venue.Venue) (venueTableModel, bool, error) {
	if item.ID != "" {
		row, found, err := r.selectRow(ctx, tx, "id", qb.Eq("public_id", item.ID), true)
		if err != nil || found {
			return row, found, err
		}
	}
	if item.ExternalVenueID != 0 {
		return r.selectRow(ctx, tx, "external id", qb.Eq("external_venue_id", item.ExternalVenueID), true)
	}
	return venueTableModel{}, false, nil
}

func (r *VenueRepository) getOne(ctx context.Context, label string, match qb.Condition) (venue.Venue, bool, error) {
	row, found, err := r.selectRow(ctx, r.db, label, match, false)
	if err != nil || !found {
		return venue.Venue{}, found, err
	}
	return row.toDomain(), true, nil
}

func (r *VenueRepository) selectRow(ctx context.Context, db sqlx.QueryerContext, label string, match qb.Condition, lock bool) (venueTableModel, bool, error) {
	builder := qb.Select("*").From("venues").
		Where(match, qb.IsNull("deleted_at")).
		OrderBy("id").
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return venueTableModel{}, false, fmt.Errorf("build get venue by %s query: %w", label, err)
	}

	var row venueTableModel
	if err := sqlx.GetContext(ctx, db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return venueTableModel{}, false, nil
		}
		return venueTableModel{}, false, fmt.Errorf("get venue by %s: %w", label, err)
	}
	return row, true, nil
}
