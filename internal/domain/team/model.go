package team

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/validation"
)

// Team is a canonical club record.
type Team struct {
	ID             string         `json:"id"`
	NameEN         string         `json:"name_en" validate:"required,max=120"`
	NameHE         string         `json:"name_he,omitempty" validate:"max=120"`
	Code           string         `json:"code" validate:"max=8"`
	Slug           string         `json:"slug" validate:"required,max=160"`
	CountryEN      string         `json:"country_en" validate:"max=80"`
	CountryHE      string         `json:"country_he,omitempty" validate:"max=80"`
	LogoURL        string         `json:"logo_url,omitempty" validate:"httpurl"`
	PrimaryColor   string         `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor string         `json:"secondary_color,omitempty" validate:"omitempty,hexcolor"`
	ExternalTeamID int64          `json:"external_team_id"`
	VenueID        string         `json:"venue_id,omitempty"`
	LeagueIDs      []string       `json:"league_ids,omitempty"`
	SupplierInfo   []SupplierInfo `json:"supplier_info,omitempty" validate:"dive"`
	IsPopular      bool           `json:"is_popular"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SupplierInfo maps a team to the name and id a supplier uses for it.
type SupplierInfo struct {
	SupplierID         string `json:"supplier_id" validate:"required"`
	SupplierTeamName   string `json:"supplier_team_name" validate:"required"`
	SupplierExternalID string `json:"supplier_external_id,omitempty"`
	ShirtImageURL      string `json:"shirt_image_url,omitempty" validate:"httpurl"`
}

func (t Team) Validate() error {
	if err := validation.Struct(t); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(t.SupplierInfo))
	for _, info := range t.SupplierInfo {
		if _, dup := seen[info.SupplierID]; dup {
			return fmt.Errorf("team %s has more than one supplier_info for supplier %s", t.Slug, info.SupplierID)
		}
		seen[info.SupplierID] = struct{}{}
	}
	return nil
}

// InLeague reports whether the team is a member of leagueID.
func (t Team) InLeague(leagueID string) bool {
	for _, id := range t.LeagueIDs {
		if id == leagueID {
			return true
		}
	}
	return false
}

// SupplierEntry returns the mapping recorded for supplierID, if any.
func (t Team) SupplierEntry(supplierID string) (SupplierInfo, bool) {
	for _, info := range t.SupplierInfo {
		if info.SupplierID == supplierID {
			return info, true
		}
	}
	return SupplierInfo{}, false
}

// UpsertSupplierInfo finds the entry for entry.SupplierID and updates it in
// place, or appends it when absent. An identical entry yields ChangeNone and
// the original slice. The input slice is never mutated.
//
// Empty optional fields on entry do not erase values already recorded, so a
// feed that only knows the team name cannot wipe a stored external id.
func UpsertSupplierInfo(list []SupplierInfo, entry SupplierInfo) ([]SupplierInfo, supplier.Change) {
	entry.SupplierID = strings.TrimSpace(entry.SupplierID)
	entry.SupplierTeamName = strings.TrimSpace(entry.SupplierTeamName)
	entry.SupplierExternalID = strings.TrimSpace(entry.SupplierExternalID)
	entry.ShirtImageURL = strings.TrimSpace(entry.ShirtImageURL)

	for i, existing := range list {
		if existing.SupplierID != entry.SupplierID {
			continue
		}
		merged := existing
		if entry.SupplierTeamName != "" {
			merged.SupplierTeamName = entry.SupplierTeamName
		}
		if entry.SupplierExternalID != "" {
			merged.SupplierExternalID = entry.SupplierExternalID
		}
		if entry.ShirtImageURL != "" {
			merged.ShirtImageURL = entry.ShirtImageURL
		}
		if merged == existing {
			return list, supplier.ChangeNone
		}
		out := make([]SupplierInfo, len(list))
		copy(out, list)
		out[i] = merged
		return out, supplier.ChangeUpdated
	}

	out := make([]SupplierInfo, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, entry)
	return out, supplier.ChangeAppended
}
