package venue

import "context"

// Repository describes venue persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Venue, error)
	GetByID(ctx context.Context, venueID string) (Venue, bool, error)
	GetByExternalID(ctx context.Context, externalVenueID int64) (Venue, bool, error)
	// GetByProviderID looks the id up in external_ids[provider].
	GetByProviderID(ctx context.Context, provider string, providerVenueID int64) (Venue, bool, error)
	// Upsert updates the row with item.ID when set, else inserts or updates by
	// external_venue_id. It returns the stored row.
	Upsert(ctx context.Context, item Venue) (Venue, error)
}
