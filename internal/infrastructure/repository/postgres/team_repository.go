package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

const hasSupplierInfoExpr = `EXISTS (
    SELECT 1 FROM jsonb_array_elements(supplier_info) AS info
    WHERE info->>'supplier_id' = ? AND COALESCE(info->>'supplier_external_id', '') <> '')`

type TeamRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db, ids: id.NewUUIDGenerator()}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	return r.list(ctx, "teams", qb.IsNull("deleted_at"))
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	return r.list(ctx, "teams by league",
		qb.Any("league_ids", leagueID),
		qb.IsNull("deleted_at"),
	)
}

func (r *TeamRepository) ListBySupplier(ctx context.Context, leagueID, supplierID string) ([]team.Team, error) {
	return r.list(ctx, "teams by supplier",
		qb.Any("league_ids", leagueID),
		qb.Expr(hasSupplierInfoExpr, supplierID),
		qb.IsNull("deleted_at"),
	)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	return r.getOne(ctx, "public_id", teamID)
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalTeamID int64) (team.Team, bool, error) {
	return r.getOne(ctx, "external_team_id", externalTeamID)
}

// Upsert matches by id first, then by external_team_id. supplier_info on an
// existing row is left untouched; it is written only by UpdateSupplierInfo.
func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Team{}, fmt.Errorf("begin tx upsert team: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, found, err := r.findForUpsert(ctx, tx, item)
	if err != nil {
		return team.Team{}, err
	}

	var row teamTableModel
	if found {
		model := teamInsertFromDomain(item)
		query, args, err := qb.Update("teams").
			Set("name_en", model.NameEN).
			Set("name_he", model.NameHE).
			Set("code", model.Code).
			Set("slug", model.Slug).
			Set("country_en", model.CountryEN).
			Set("country_he", model.CountryHE).
			Set("logo_url", model.LogoURL).
			Set("primary_color", model.PrimaryColor).
			Set("secondary_color", model.SecondaryColor).
			Set("external_team_id", model.ExternalTeamID).
			Set("venue_public_id", model.VenueID).
			Set("league_ids", model.LeagueIDs).
			Set("is_popular", model.IsPopular).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Suffix("RETURNING *").
			ToSQL()
		if err != nil {
			return team.Team{}, fmt.Errorf("build update team query: %w", err)
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return team.Team{}, fmt.Errorf("update team: %w", err)
		}
	} else {
		if item.ID == "" {
			if item.ID, err = r.ids.NewID(); err != nil {
				return team.Team{}, fmt.Errorf("generate team id: %w", err)
			}
		}
		query, args, err := qb.InsertModel("teams", teamInsertFromDomain(item), "RETURNING *")
		if err != nil {
			return team.Team{}, fmt.Errorf("build insert team query: %w", err)
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return team.Team{}, fmt.Errorf("insert team: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return team.Team{}, fmt.Errorf("commit upsert team tx: %w", err)
	}
	return row.toDomain(), nil
}

func (r *TeamRepository) UpdateSupplierInfo(ctx context.Context, teamID string, info []team.SupplierInfo) error {
	if info == nil {
		info = []team.SupplierInfo{}
	}
	query, args, err := qb.Update("teams").
		Set("supplier_info", jsonOf(info)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team supplier info query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update team supplier info: %w", err)
	}
	return nil
}

func (r *TeamRepository) findForUpsert(ctx context.Context, tx *sqlx.Tx, item team.Team) (teamTableModel, bool, error) {
	if item.ID != "" {
		row, found, err := r.selectRow(ctx, tx, "public_id", item.ID, true)
		if err != nil || found {
			return row, found, err
		}
	}
	if item.ExternalTeamID != 0 {
		return r.selectRow(ctx, tx, "external_team_id", item.ExternalTeamID, true)
	}
	return teamTableModel{}, false, nil
}

func (r *TeamRepository) list(ctx context.Context, label string, conditions ...qb.Condition) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(conditions...).
		OrderBy("slug").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s query: %w", label, err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", label, err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamRepository) getOne(ctx context.Context, column string, value any) (team.Team, bool, error) {
	row, found, err := r.selectRow(ctx, r.db, column, value, false)
	if err != nil || !found {
		return team.Team{}, found, err
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) selectRow(ctx context.Context, db sqlx.QueryerContext, column string, value any, lock bool) (teamTableModel, bool, error) {
	builder := qb.Select("*").From("teams").
		Where(
			qb.Eq(column, value),
			qb.IsNull("deleted_at"),
		).
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return teamTableModel{}, false, fmt.Errorf("build get team by %s query: %w", column, err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamTableModel{}, false, nil
		}
		return teamTableModel{}, false, fmt.Errorf("get team by %s: %w", column, err)
	}
	return row, true, nil
}
