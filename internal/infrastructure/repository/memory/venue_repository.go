package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
)

type VenueRepository struct {
	mu     sync.RWMutex
	items  map[string]venue.Venue
	ids    id.Generator
	writes writeCounter
}

func NewVenueRepository(venues []venue.Venue) *VenueRepository {
	items := make(map[string]venue.Venue, len(venues))
	for _, item := range venues {
		items[item.ID] = cloneVenue(item)
	}
	return &VenueRepository{items: items, ids: id.NewUUIDGenerator()}
}

func (r *VenueRepository) List(_ context.Context) ([]venue.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]venue.Venue, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneVenue(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalVenueID < out[j].ExternalVenueID })
	return out, nil
}

func (r *VenueRepository) GetByID(_ context.Context, venueID string) (venue.Venue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[venueID]
	return cloneVenue(item), ok, nil
}

func (r *VenueRepository) GetByExternalID(_ context.Context, externalVenueID int64) (venue.Venue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ExternalVenueID == externalVenueID {
			return cloneVenue(item), true, nil
		}
	}
	return venue.Venue{}, false, nil
}

func (r *VenueRepository) GetByProviderID(_ context.Context, provider string, providerVenueID int64) (venue.Venue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if got, ok := item.ExternalIDFor(provider); ok && got == providerVenueID {
			return cloneVenue(item), true, nil
		}
	}
	return venue.Venue{}, false, nil
}

func (r *VenueRepository) Upsert(_ context.Context, item venue.Venue) (venue.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for existingID, existing := range r.items {
		sameID := item.ID != "" && existingID == item.ID
		sameExternal := item.ExternalVenueID != 0 && existing.ExternalVenueID == item.ExternalVenueID
		if !sameID && !sameExternal {
			continue
		}
		item.ID = existingID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = now
		r.items[existingID] = cloneVenue(item)
		r.writes.inc()
		return cloneVenue(item), nil
	}

	if item.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			return venue.Venue{}, err
		}
		item.ID = newID
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = cloneVenue(item)
	r.writes.inc()
	return cloneVenue(item), nil
}

func (r *VenueRepository) Writes() int64 {
	return r.writes.load()
}

func cloneVenue(item venue.Venue) venue.Venue {
	item.ExternalIDs = maps.Clone(item.ExternalIDs)
	return item
}
