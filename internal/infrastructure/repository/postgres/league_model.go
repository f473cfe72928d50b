package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
)

type leagueTableModel struct {
	ID               int64         `db:"id"`
	PublicID         string        `db:"public_id"`
	Slug             string        `db:"slug"`
	Name             string        `db:"name"`
	Country          string        `db:"country"`
	ExternalLeagueID sql.NullInt64 `db:"external_league_id"`
	SeasonID         sql.NullInt64 `db:"season_id"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
	DeletedAt        *time.Time    `db:"deleted_at"`
}

func (row leagueTableModel) toDomain() league.League {
	return league.League{
		ID:               row.PublicID,
		Slug:             row.Slug,
		Name:             row.Name,
		Country:          row.Country,
		ExternalLeagueID: nullInt64ToInt64(row.ExternalLeagueID),
		SeasonID:         nullInt64ToInt64(row.SeasonID),
	}
}
