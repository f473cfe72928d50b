package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

const hasSupplierRefExpr = `EXISTS (
    SELECT 1 FROM jsonb_array_elements(supplier_external_ids) AS ref
    WHERE ref->>'supplier_id' = ? AND COALESCE(ref->>'supplier_external_id', '') <> '')`

type FixtureRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db, ids: id.NewUUIDGenerator()}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	row, found, err := r.selectRow(ctx, r.db, "id", qb.Eq("public_id", fixtureID), false)
	if err != nil || !found {
		return fixture.Fixture{}, found, err
	}
	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByPairingInWindow(ctx context.Context, query fixture.WindowQuery) ([]fixture.Fixture, error) {
	return r.list(ctx, "fixtures by pairing",
		qb.Eq("league_public_id", query.LeagueID),
		qb.Eq("home_team_public_id", query.HomeTeamID),
		qb.Eq("away_team_public_id", query.AwayTeamID),
		qb.Gte("kickoff_at", query.From.UTC()),
		qb.Lte("kickoff_at", query.To.UTC()),
		qb.IsNull("deleted_at"),
	)
}

func (r *FixtureRepository) ListUpcoming(ctx context.Context, leagueID string, from time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, "upcoming fixtures",
		qb.Eq("league_public_id", leagueID),
		qb.Gte("kickoff_at", from.UTC()),
		qb.IsNull("deleted_at"),
	)
}

func (r *FixtureRepository) ListUpcomingBySupplier(ctx context.Context, leagueID, supplierID string, from time.Time) ([]fixture.Fixture, error) {
	return r.list(ctx, "upcoming fixtures by supplier",
		qb.Eq("league_public_id", leagueID),
		qb.Gte("kickoff_at", from.UTC()),
		qb.Expr(hasSupplierRefExpr, supplierID),
		qb.IsNull("deleted_at"),
	)
}

// Upsert matches by id, then external_fixture_id, then slug for fixtures
// without an external id. Supplier references and the cached min price of
// an existing row are preserved.
func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("begin tx upsert fixture: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, found, err := r.findForUpsert(ctx, tx, item)
	if err != nil {
		return fixture.Fixture{}, err
	}

	var (
		query string
		args  []any
	)
	if found {
		builder, buildErr := qb.UpdateModel("fixtures", fixtureScheduleFromDomain(item))
		if buildErr != nil {
			return fixture.Fixture{}, fmt.Errorf("build update fixture query: %w", buildErr)
		}
		query, args, err = builder.
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Suffix("RETURNING *").
			ToSQL()
	} else {
		if item.ID == "" {
			if item.ID, err = r.ids.NewID(); err != nil {
				return fixture.Fixture{}, fmt.Errorf("generate fixture id: %w", err)
			}
		}
		query, args, err = qb.InsertModel("fixtures", fixtureInsertFromDomain(item), "RETURNING *")
	}
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("build upsert fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return fixture.Fixture{}, fmt.Errorf("upsert fixture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fixture.Fixture{}, fmt.Errorf("commit upsert fixture tx: %w", err)
	}
	return row.toDomain(), nil
}

func (r *FixtureRepository) UpdateSupplierRefs(ctx context.Context, fixtureID string, refs []fixture.SupplierRef) error {
	if refs == nil {
		refs = []fixture.SupplierRef{}
	}
	return r.update(ctx, "supplier refs", fixtureID, qb.Update("fixtures").
		Set("supplier_external_ids", jsonOf(refs)))
}

func (r *FixtureRepository) UpdateKickoff(ctx context.Context, fixtureID string, kickoffAt time.Time, slug string) error {
	return r.update(ctx, "kickoff", fixtureID, qb.Update("fixtures").
		Set("kickoff_at", kickoffAt.UTC()).
		Set("slug", slug))
}

func (r *FixtureRepository) UpdateMinPrice(ctx context.Context, fixtureID string, price *fixture.MinPrice) error {
	builder := qb.Update("fixtures")
	if price == nil {
		builder = builder.
			SetExpr("min_price_amount", "NULL").
			SetExpr("min_price_currency", "NULL").
			SetExpr("min_price_updated_at", "NULL")
	} else {
		builder = builder.
			Set("min_price_amount", price.Amount).
			Set("min_price_currency", price.Currency).
			Set("min_price_updated_at", price.UpdatedAt.UTC())
	}
	return r.update(ctx, "min price", fixtureID, builder)
}

func (r *FixtureRepository) SwapHomeAway(ctx context.Context, fixtureID, slug string) error {
	return r.update(ctx, "home and away", fixtureID, qb.Update("fixtures").
		SetExpr("home_team_public_id", "away_team_public_id").
		SetExpr("away_team_public_id", "home_team_public_id").
		Set("slug", slug))
}

func (r *FixtureRepository) update(ctx context.Context, label, fixtureID string, builder *qb.UpdateBuilder) error {
	query, args, err := builder.
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture %s query: %w", label, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update fixture %s: %w", label, err)
	}
	return nil
}

func (r *FixtureRepository) findForUpsert(ctx context.Context, tx *sqlx.Tx, item fixture.Fixture) (fixtureTableModel, bool, error) {
	if item.ID != "" {
		row, found, err := r.selectRow(ctx, tx, "id", qb.Eq("public_id", item.ID), true)
		if err != nil || found {
			return row, found, err
		}
	}
	if item.ExternalFixtureID != 0 {
		return r.selectRow(ctx, tx, "external id", qb.Eq("external_fixture_id", item.ExternalFixtureID), true)
	}
	return r.selectRow(ctx, tx, "slug", qb.Eq("slug", item.Slug), true)
}

func (r *FixtureRepository) list(ctx context.Context, label string, conditions ...qb.Condition) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(conditions...).
		OrderBy("kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s query: %w", label, err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", label, err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FixtureRepository) selectRow(ctx context.Context, db sqlx.QueryerContext, label string, match qb.Condition, lock bool) (fixtureTableModel, bool, error) {
	builder := qb.Select("*").From("fixtures").
		Where(match, qb.IsNull("deleted_at")).
		OrderBy("id").
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fixtureTableModel{}, false, fmt.Errorf("build get fixture by %s query: %w", label, err)
	}

	var row fixtureTableModel
	if err := sqlx.GetContext(ctx, db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixtureTableModel{}, false, nil
		}
		return fixtureTableModel{}, false, fmt.Errorf("get fixture by %s: %w", label, err)
	}
	return row, true, nil
}
