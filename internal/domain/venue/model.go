package venue

import (
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/validation"
)

// Venue is a stadium.
type Venue struct {
	ID              string           `json:"id"`
	NameEN          string           `json:"name_en" validate:"required,max=160"`
	NameHE          string           `json:"name_he,omitempty" validate:"max=160"`
	CityEN          string           `json:"city_en" validate:"max=120"`
	CityHE          string           `json:"city_he,omitempty" validate:"max=120"`
	CountryEN       string           `json:"country_en,omitempty" validate:"max=80"`
	CountryHE       string           `json:"country_he,omitempty" validate:"max=80"`
	Capacity        int              `json:"capacity" validate:"gte=0"`
	ImageURL        string           `json:"image_url,omitempty" validate:"httpurl"`
	ExternalVenueID int64            `json:"external_venue_id"`
	ExternalIDs     map[string]int64 `json:"external_ids,omitempty"`
	IsPopular       bool             `json:"is_popular"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (v Venue) Validate() error {
	return validation.Struct(v)
}

// ExternalIDFor returns the id a provider uses for this venue.
func (v Venue) ExternalIDFor(provider string) (int64, bool) {
	id, ok := v.ExternalIDs[provider]
	return id, ok && id != 0
}
