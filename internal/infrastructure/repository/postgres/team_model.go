package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
)

type teamTableModel struct {
	ID             int64                           `db:"id"`
	PublicID       string                          `db:"public_id"`
	NameEN         string                          `db:"name_en"`
	NameHE         string                          `db:"name_he"`
	Code           string                          `db:"code"`
	Slug           string                          `db:"slug"`
	CountryEN      string                          `db:"country_en"`
	CountryHE      string                          `db:"country_he"`
	LogoURL        string                          `db:"logo_url"`
	PrimaryColor   sql.NullString                  `db:"primary_color"`
	SecondaryColor sql.NullString                  `db:"secondary_color"`
	ExternalTeamID sql.NullInt64                   `db:"external_team_id"`
	VenueID        sql.NullString                  `db:"venue_public_id"`
	LeagueIDs      pq.StringArray                  `db:"league_ids"`
	SupplierInfo   jsonColumn[[]team.SupplierInfo] `db:"supplier_info"`
	IsPopular      bool                            `db:"is_popular"`
	CreatedAt      time.Time                       `db:"created_at"`
	UpdatedAt      time.Time                       `db:"updated_at"`
	DeletedAt      *time.Time                      `db:"deleted_at"`
}

type teamInsertModel struct {
	PublicID       string                          `db:"public_id"`
	NameEN         string                          `db:"name_en"`
	NameHE         string                          `db:"name_he"`
	Code           string                          `db:"code"`
	Slug           string                          `db:"slug"`
	CountryEN      string                          `db:"country_en"`
	CountryHE      string                          `db:"country_he"`
	LogoURL        string                          `db:"logo_url"`
	PrimaryColor   sql.NullString                  `db:"primary_color"`
	SecondaryColor sql.NullString                  `db:"secondary_color"`
	ExternalTeamID sql.NullInt64                   `db:"external_team_id"`
	VenueID        sql.NullString                  `db:"venue_public_id"`
	LeagueIDs      pq.StringArray                  `db:"league_ids"`
	SupplierInfo   jsonColumn[[]team.SupplierInfo] `db:"supplier_info"`
	IsPopular      bool                            `db:"is_popular"`
}

func (row teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:             row.PublicID,
		NameEN:         row.NameEN,
		NameHE:         row.NameHE,
		Code:           row.Code,
		Slug:           row.Slug,
		CountryEN:      row.CountryEN,
		CountryHE:      row.CountryHE,
		LogoURL:        row.LogoURL,
		PrimaryColor:   row.PrimaryColor.String,
		SecondaryColor: row.SecondaryColor.String,
		ExternalTeamID: nullInt64ToInt64(row.ExternalTeamID),
		VenueID:        row.VenueID.String,
		LeagueIDs:      []string(row.LeagueIDs),
		SupplierInfo:   row.SupplierInfo.V,
		IsPopular:      row.IsPopular,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func teamInsertFromDomain(item team.Team) teamInsertModel {
	leagueIDs := item.LeagueIDs
	if leagueIDs == nil {
		leagueIDs = []string{}
	}
	info := item.SupplierInfo
	if info == nil {
		info = []team.SupplierInfo{}
	}
	return teamInsertModel{
		PublicID:       item.ID,
		NameEN:         item.NameEN,
		NameHE:         item.NameHE,
		Code:           item.Code,
		Slug:           item.Slug,
		CountryEN:      item.CountryEN,
		CountryHE:      item.CountryHE,
		LogoURL:        item.LogoURL,
		PrimaryColor:   stringToNull(item.PrimaryColor),
		SecondaryColor: stringToNull(item.SecondaryColor),
		ExternalTeamID: int64ToNull(item.ExternalTeamID),
		VenueID:        stringToNull(item.VenueID),
		LeagueIDs:      pq.StringArray(leagueIDs),
		SupplierInfo:   jsonOf(info),
		IsPopular:      item.IsPopular,
	}
}
