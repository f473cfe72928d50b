package postgres

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID                int64                             `db:"id"`
	PublicID          string                            `db:"public_id"`
	LeagueID          string                            `db:"league_public_id"`
	HomeTeamID        string                            `db:"home_team_public_id"`
	AwayTeamID        string                            `db:"away_team_public_id"`
	VenueID           sql.NullString                    `db:"venue_public_id"`
	ExternalFixtureID sql.NullInt64                     `db:"external_fixture_id"`
	KickoffAt         time.Time                         `db:"kickoff_at"`
	Status            string                            `db:"status"`
	Round             string                            `db:"round"`
	Slug              string                            `db:"slug"`
	SupplierRefs      jsonColumn[[]fixture.SupplierRef] `db:"supplier_external_ids"`
	MinPriceAmount    decimal.NullDecimal               `db:"min_price_amount"`
	MinPriceCurrency  sql.NullString                    `db:"min_price_currency"`
	MinPriceUpdatedAt sql.NullTime                      `db:"min_price_updated_at"`
	CreatedAt         time.Time                         `db:"created_at"`
	UpdatedAt         time.Time                         `db:"updated_at"`
	DeletedAt         *time.Time                        `db:"deleted_at"`
}

// fixtureScheduleModel holds the columns owned by schedule imports. Supplier
// references and the cached min price are written through dedicated updates.
type fixtureScheduleModel struct {
	LeagueID          string         `db:"league_public_id"`
	HomeTeamID        string         `db:"home_team_public_id"`
	AwayTeamID        string         `db:"away_team_public_id"`
	VenueID           sql.NullString `db:"venue_public_id"`
	ExternalFixtureID sql.NullInt64  `db:"external_fixture_id"`
	KickoffAt         time.Time      `db:"kickoff_at"`
	Status            string         `db:"status"`
	Round             string         `db:"round"`
	Slug              string         `db:"slug"`
}

type fixtureInsertModel struct {
	PublicID          string                            `db:"public_id"`
	LeagueID          string                            `db:"league_public_id"`
	HomeTeamID        string                            `db:"home_team_public_id"`
	AwayTeamID        string                            `db:"away_team_public_id"`
	VenueID           sql.NullString                    `db:"venue_public_id"`
	ExternalFixtureID sql.NullInt64                     `db:"external_fixture_id"`
	KickoffAt         time.Time                         `db:"kickoff_at"`
	Status            string                            `db:"status"`
	Round             string                            `db:"round"`
	Slug              string                            `db:"slug"`
	SupplierRefs      jsonColumn[[]fixture.SupplierRef] `db:"supplier_external_ids"`
}

func (row fixtureTableModel) toDomain() fixture.Fixture {
	item := fixture.Fixture{
		ID:                row.PublicID,
		LeagueID:          row.LeagueID,
		HomeTeamID:        row.HomeTeamID,
		AwayTeamID:        row.AwayTeamID,
		VenueID:           row.VenueID.String,
		ExternalFixtureID: nullInt64ToInt64(row.ExternalFixtureID),
		KickoffAt:         row.KickoffAt.UTC(),
		Status:            row.Status,
		Round:             row.Round,
		Slug:              row.Slug,
		SupplierRefs:      row.SupplierRefs.V,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.MinPriceAmount.Valid {
		item.MinPrice = &fixture.MinPrice{
			Amount:    row.MinPriceAmount.Decimal,
			Currency:  row.MinPriceCurrency.String,
			UpdatedAt: row.MinPriceUpdatedAt.Time.UTC(),
		}
	}
	return item
}

func fixtureScheduleFromDomain(item fixture.Fixture) fixtureScheduleModel {
	return fixtureScheduleModel{
		LeagueID:          item.LeagueID,
		HomeTeamID:        item.HomeTeamID,
		AwayTeamID:        item.AwayTeamID,
		VenueID:           stringToNull(item.VenueID),
		ExternalFixtureID: int64ToNull(item.ExternalFixtureID),
		KickoffAt:         item.KickoffAt.UTC(),
		Status:            fixture.NormalizeStatus(item.Status),
		Round:             item.Round,
		Slug:              item.Slug,
	}
}

func fixtureInsertFromDomain(item fixture.Fixture) fixtureInsertModel {
	schedule := fixtureScheduleFromDomain(item)
	refs := item.SupplierRefs
	if refs == nil {
		refs = []fixture.SupplierRef{}
	}
	return fixtureInsertModel{
		PublicID:          item.ID,
		LeagueID:          schedule.LeagueID,
		HomeTeamID:        schedule.HomeTeamID,
		AwayTeamID:        schedule.AwayTeamID,
		VenueID:           schedule.VenueID,
		ExternalFixtureID: schedule.ExternalFixtureID,
		KickoffAt:         schedule.KickoffAt,
		Status:            schedule.Status,
		Round:             schedule.Round,
		Slug:              schedule.Slug,
		SupplierRefs:      jsonOf(refs),
	}
}
