package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
)

type offerTableModel struct {
	ID            int64           `db:"id"`
	PublicID      string          `db:"public_id"`
	FixtureID     string          `db:"fixture_public_id"`
	OwnerType     string          `db:"owner_type"`
	OwnerID       string          `db:"owner_public_id"`
	Price         decimal.Decimal `db:"price"`
	Currency      string          `db:"currency"`
	TicketType    string          `db:"ticket_type"`
	IsHospitality bool            `db:"is_hospitality"`
	IsAvailable   bool            `db:"is_available"`
	URL           string          `db:"url"`
	Notes         string          `db:"notes"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	DeletedAt     *time.Time      `db:"deleted_at"`
}

type offerInsertModel struct {
	PublicID      string          `db:"public_id"`
	FixtureID     string          `db:"fixture_public_id"`
	OwnerType     string          `db:"owner_type"`
	OwnerID       string          `db:"owner_public_id"`
	Price         decimal.Decimal `db:"price"`
	Currency      string          `db:"currency"`
	TicketType    string          `db:"ticket_type"`
	IsHospitality bool            `db:"is_hospitality"`
	IsAvailable   bool            `db:"is_available"`
	URL           string          `db:"url"`
	Notes         string          `db:"notes"`
}

// offerListingModel is the mutable part of an offer; the key columns never
// change after creation.
type offerListingModel struct {
	Price         decimal.Decimal `db:"price"`
	Currency      string          `db:"currency"`
	IsHospitality bool            `db:"is_hospitality"`
	IsAvailable   bool            `db:"is_available"`
	URL           string          `db:"url"`
	Notes         string          `db:"notes"`
}

func (row offerTableModel) toDomain() offer.Offer {
	return offer.Offer{
		ID:            row.PublicID,
		FixtureID:     row.FixtureID,
		OwnerType:     row.OwnerType,
		OwnerID:       row.OwnerID,
		Price:         row.Price,
		Currency:      row.Currency,
		TicketType:    row.TicketType,
		IsHospitality: row.IsHospitality,
		IsAvailable:   row.IsAvailable,
		URL:           row.URL,
		Notes:         row.Notes,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
