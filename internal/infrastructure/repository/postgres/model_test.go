package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

func TestFixtureRow_MinPrice(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	row := fixtureTableModel{
		PublicID:          "f1",
		KickoffAt:         at.Add(72 * time.Hour),
		MinPriceAmount:    decimal.NullDecimal{Decimal: decimal.RequireFromString("89.50"), Valid: true},
		MinPriceCurrency:  sql.NullString{String: "GBP", Valid: true},
		MinPriceUpdatedAt: sql.NullTime{Time: at, Valid: true},
	}

	item := row.toDomain()
	require.NotNil(t, item.MinPrice)
	require.True(t, item.MinPrice.Amount.Equal(decimal.RequireFromString("89.5")))
	require.Equal(t, "GBP", item.MinPrice.Currency)
	require.Equal(t, at, item.MinPrice.UpdatedAt)

	row.MinPriceAmount = decimal.NullDecimal{}
	require.Nil(t, row.toDomain().MinPrice)
}

func TestFixtureScheduleModel_ExcludesOwnedColumns(t *testing.T) {
	cols, err := qb.ColumnsOf(fixtureScheduleFromDomain(fixture.Fixture{Slug: "a-vs-b-2026-03-04"}))
	require.NoError(t, err)
	require.NotContains(t, cols, "supplier_external_ids")
	require.NotContains(t, cols, "min_price_amount")
	require.NotContains(t, cols, "public_id")

	model := fixtureScheduleFromDomain(fixture.Fixture{})
	require.Equal(t, fixture.StatusScheduled, model.Status)
	require.False(t, model.ExternalFixtureID.Valid)
}

func TestTeamInsertFromDomain(t *testing.T) {
	model := teamInsertFromDomain(team.Team{ID: "t1", NameEN: "Arsenal", Slug: "arsenal"})
	require.NotNil(t, model.LeagueIDs)
	require.NotNil(t, model.SupplierInfo.V)
	require.False(t, model.ExternalTeamID.Valid)
	require.False(t, model.PrimaryColor.Valid)

	value, err := model.SupplierInfo.Value()
	require.NoError(t, err)
	require.Equal(t, "[]", value)
}

func TestVenueRow_RoundTrip(t *testing.T) {
	in := venue.Venue{
		ID:              "v1",
		NameEN:          "Anfield",
		ExternalVenueID: 19,
		ExternalIDs:     map[string]int64{"sportmonks": 19, "hellotickets": 311},
	}
	model := venueInsertFromDomain(in)

	row := venueTableModel{
		PublicID:        model.PublicID,
		NameEN:          model.NameEN,
		ExternalVenueID: model.ExternalVenueID,
		ExternalIDs:     model.ExternalIDs,
	}
	out := row.toDomain()
	require.Equal(t, in.ExternalIDs, out.ExternalIDs)
	id, ok := out.ExternalIDFor("hellotickets")
	require.True(t, ok)
	require.EqualValues(t, 311, id)
}
