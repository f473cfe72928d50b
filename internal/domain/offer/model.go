package offer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/validation"
)

const (
	OwnerSupplier = "Supplier"
	OwnerAgent    = "Agent"

	TicketStandard = "standard"
	TicketVIP      = "vip"

	CurrencyEUR = "EUR"
	CurrencyUSD = "USD"
	CurrencyILS = "ILS"
	CurrencyGBP = "GBP"
)

var minPrice = decimal.NewFromInt(1)

// Offer is a sellable ticket listing for one fixture from one owner.
type Offer struct {
	ID            string          `json:"id"`
	FixtureID     string          `json:"fixture_id" validate:"required"`
	OwnerType     string          `json:"owner_type" validate:"required,oneof=Supplier Agent"`
	OwnerID       string          `json:"owner_id" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency" validate:"required,oneof=EUR USD ILS GBP"`
	TicketType    string          `json:"ticket_type" validate:"required,oneof=standard vip"`
	IsHospitality bool            `json:"is_hospitality"`
	IsAvailable   bool            `json:"is_available"`
	URL           string          `json:"url" validate:"httpurl"`
	Notes         string          `json:"notes,omitempty" validate:"max=300"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Key identifies the one offer an owner may hold per fixture and ticket type.
type Key struct {
	FixtureID  string
	OwnerType  string
	OwnerID    string
	TicketType string
}

func (o Offer) Key() Key {
	return Key{
		FixtureID:  o.FixtureID,
		OwnerType:  o.OwnerType,
		OwnerID:    o.OwnerID,
		TicketType: o.TicketType,
	}
}

func (o Offer) Validate() error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	if o.Price.LessThan(minPrice) {
		return fmt.Errorf("offer price must be at least %s, got %s", minPrice, o.Price)
	}
	return nil
}

// SameListing reports whether two offers carry the same sellable state.
// Identity and timestamps are ignored.
func (o Offer) SameListing(other Offer) bool {
	return o.Price.Equal(other.Price) &&
		o.Currency == other.Currency &&
		o.IsHospitality == other.IsHospitality &&
		o.IsAvailable == other.IsAvailable &&
		o.URL == other.URL &&
		o.Notes == other.Notes
}
