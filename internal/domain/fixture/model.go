package fixture

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Metadata keys stored on a supplier reference as the last seen snapshot.
const (
	MetaURL          = "url"
	MetaAffiliateURL = "affiliate_url"
	MetaMinPrice     = "min_price"
	MetaMaxPrice     = "max_price"
	MetaCurrency     = "currency"
	MetaReversed     = "reported_reversed"
)

// priceSnapshotKeys are written together; an entry carrying any of them
// replaces the whole set.
var priceSnapshotKeys = []string{MetaMinPrice, MetaMaxPrice, MetaCurrency}

func hasPriceSnapshot(meta map[string]string) bool {
	for _, key := range priceSnapshotKeys {
		if _, ok := meta[key]; ok {
			return true
		}
	}
	return false
}

// Fixture represents one scheduled match.
type Fixture struct {
	ID                string        `json:"id"`
	LeagueID          string        `json:"league_id"`
	HomeTeamID        string        `json:"home_team_id"`
	AwayTeamID        string        `json:"away_team_id"`
	VenueID           string        `json:"venue_id,omitempty"`
	ExternalFixtureID int64         `json:"external_fixture_id,omitempty"`
	KickoffAt         time.Time     `json:"kickoff_at"`
	Status            string        `json:"status"`
	Round             string        `json:"round,omitempty"`
	Slug              string        `json:"slug"`
	SupplierRefs      []SupplierRef `json:"supplier_external_ids,omitempty"`
	MinPrice          *MinPrice     `json:"min_price,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// SupplierRef maps a fixture to a supplier's own id for it.
type SupplierRef struct {
	SupplierID         string            `json:"supplier_id"`
	SupplierExternalID string            `json:"supplier_external_id"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// MinPrice is the cheapest available offer, stored in that offer's own
// currency. Offers are ranked by their EUR value.
type MinPrice struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (f Fixture) Validate() error {
	if f.LeagueID == "" {
		return fmt.Errorf("fixture league id is required")
	}
	if f.HomeTeamID == "" || f.AwayTeamID == "" {
		return fmt.Errorf("fixture teams are required")
	}
	if f.HomeTeamID == f.AwayTeamID {
		return fmt.Errorf("fixture home and away team must differ")
	}
	if f.KickoffAt.IsZero() {
		return fmt.Errorf("fixture kickoff is required")
	}
	if f.Slug == "" {
		return fmt.Errorf("fixture slug is required")
	}
	return nil
}

// SupplierRef returns the reference recorded for supplierID, if any.
func (f Fixture) SupplierRef(supplierID string) (SupplierRef, bool) {
	for _, ref := range f.SupplierRefs {
		if ref.SupplierID == supplierID {
			return ref, true
		}
	}
	return SupplierRef{}, false
}

// BuildSlug derives the canonical slug, e.g. "arsenal-vs-chelsea-2026-02-28".
func BuildSlug(homeSlug, awaySlug string, kickoff time.Time) string {
	return fmt.Sprintf("%s-vs-%s-%s",
		strings.TrimSpace(homeSlug),
		strings.TrimSpace(awaySlug),
		kickoff.UTC().Format("2006-01-02"),
	)
}

// UpsertSupplierRef finds the entry for entry.SupplierID and updates it in
// place, or appends it when absent. Metadata is merged key by key so that a
// caller refreshing only the price does not drop the stored URL, except for
// the price snapshot: when entry carries one, snapshot keys it omits are
// removed. An identical entry yields ChangeNone and the original slice.
func UpsertSupplierRef(list []SupplierRef, entry SupplierRef) ([]SupplierRef, supplier.Change) {
	entry.SupplierID = strings.TrimSpace(entry.SupplierID)
	entry.SupplierExternalID = strings.TrimSpace(entry.SupplierExternalID)

	for i, existing := range list {
		if existing.SupplierID != entry.SupplierID {
			continue
		}
		merged := SupplierRef{
			SupplierID:         existing.SupplierID,
			SupplierExternalID: existing.SupplierExternalID,
			Metadata:           maps.Clone(existing.Metadata),
		}
		if entry.SupplierExternalID != "" {
			merged.SupplierExternalID = entry.SupplierExternalID
		}
		if hasPriceSnapshot(entry.Metadata) {
			for _, key := range priceSnapshotKeys {
				if _, ok := entry.Metadata[key]; !ok {
					delete(merged.Metadata, key)
				}
			}
		}
		for key, value := range entry.Metadata {
			if merged.Metadata == nil {
				merged.Metadata = make(map[string]string, len(entry.Metadata))
			}
			merged.Metadata[key] = value
		}
		if merged.SupplierExternalID == existing.SupplierExternalID && maps.Equal(merged.Metadata, existing.Metadata) {
			return list, supplier.ChangeNone
		}
		out := make([]SupplierRef, len(list))
		copy(out, list)
		out[i] = merged
		return out, supplier.ChangeUpdated
	}

	appended := SupplierRef{
		SupplierID:         entry.SupplierID,
		SupplierExternalID: entry.SupplierExternalID,
		Metadata:           maps.Clone(entry.Metadata),
	}
	out := make([]SupplierRef, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, appended)
	return out, supplier.ChangeAppended
}

// ChangedMetadata lists the metadata keys whose value differs between two
// snapshots. Keys missing from next are ignored unless they belong to a price
// snapshot that next replaces.
func ChangedMetadata(current, next map[string]string) []string {
	var changed []string
	for key, value := range next {
		if stored, ok := current[key]; !ok || stored != value {
			changed = append(changed, key)
		}
	}
	if hasPriceSnapshot(next) {
		for _, key := range priceSnapshotKeys {
			_, stored := current[key]
			if _, kept := next[key]; stored && !kept {
				changed = append(changed, key)
			}
		}
	}
	return changed
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}

// IsSellable reports whether tickets can still be offered for the fixture.
func IsSellable(f Fixture, now time.Time) bool {
	if IsFinishedStatus(f.Status) || IsCancelledLikeStatus(f.Status) {
		return false
	}
	return !f.KickoffAt.Before(now)
}
