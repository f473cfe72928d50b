package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
)

type venueTableModel struct {
	ID              int64                        `db:"id"`
	PublicID        string                       `db:"public_id"`
	NameEN          string                       `db:"name_en"`
	NameHE          string                       `db:"name_he"`
	CityEN          string                       `db:"city_en"`
	CityHE          string                       `db:"city_he"`
	CountryEN       string                       `db:"country_en"`
	CountryHE       string                       `db:"country_he"`
	Capacity        int                          `db:"capacity"`
	ImageURL        string                       `db:"image_url"`
	ExternalVenueID sql.NullInt64                `db:"external_venue_id"`
	ExternalIDs     jsonColumn[map[string]int64] `db:"external_ids"`
	IsPopular       bool                         `db:"is_popular"`
	CreatedAt       time.Time                    `db:"created_at"`
	UpdatedAt       time.Time                    `db:"updated_at"`
	DeletedAt       *time.Time                   `db:"deleted_at"`
}

type venueInsertModel struct {
	PublicID        string                       `db:"public_id"`
	NameEN          string                       `db:"name_en"`
	NameHE          string                       `db:"name_he"`
	CityEN          string                       `db:"city_en"`
	CityHE          string                       `db:"city_he"`
	CountryEN       string                       `db:"country_en"`
	CountryHE       string                       `db:"country_he"`
	Capacity        int                          `db:"capacity"`
	ImageURL        string                       `db:"image_url"`
	ExternalVenueID sql.NullInt64                `db:"external_venue_id"`
	ExternalIDs     jsonColumn[map[string]int64] `db:"external_ids"`
	IsPopular       bool                         `db:"is_popular"`
}

func (row venueTableModel) toDomain() venue.Venue {
	return venue.Venue{
		ID:              row.PublicID,
		NameEN:          row.NameEN,
		NameHE:          row.NameHE,
		CityEN:          row.CityEN,
		CityHE:          row.CityHE,
		CountryEN:       row.CountryEN,
		CountryHE:       row.CountryHE,
		Capacity:        row.Capacity,
		ImageURL:        row.ImageURL,
		ExternalVenueID: nullInt64ToInt64(row.ExternalVenueID),
		ExternalIDs:     row.ExternalIDs.V,
		IsPopular:       row.IsPopular,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func venueInsertFromDomain(item venue.Venue) venueInsertModel {
	externalIDs := item.ExternalIDs
	if externalIDs == nil {
		externalIDs = map[string]int64{}
	}
	return venueInsertModel{
		PublicID:        item.ID,
		NameEN:          item.NameEN,
		NameHE:          item.NameHE,
		CityEN:          item.CityEN,
		CityHE:          item.CityHE,
		CountryEN:       item.CountryEN,
		CountryHE:       item.CountryHE,
		Capacity:        item.Capacity,
		ImageURL:        item.ImageURL,
		ExternalVenueID: int64ToNull(item.ExternalVenueID),
		ExternalIDs:     jsonOf(externalIDs),
		IsPopular:       item.IsPopular,
	}
}
