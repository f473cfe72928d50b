package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
)

type OfferRepository struct {
	mu     sync.RWMutex
	items  map[offer.Key]offer.Offer
	ids    id.Generator
	writes writeCounter
}

func NewOfferRepository(offers []offer.Offer) *OfferRepository {
	items := make(map[offer.Key]offer.Offer, len(offers))
	for _, item := range offers {
		items[item.Key()] = item
	}
	return &OfferRepository{items: items, ids: id.NewUUIDGenerator()}
}

func (r *OfferRepository) FindByKey(_ context.Context, key offer.Key) (offer.Offer, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[key]
	return item, ok, nil
}

func (r *OfferRepository) Create(_ context.Context, item offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[item.Key()]; ok {
		return existing, nil
	}
	if item.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			return offer.Offer{}, err
		}
		item.ID = newID
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.Key()] = item
	r.writes.inc()
	return item, nil
}

func (r *OfferRepository) Update(_ context.Context, item offer.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.Key()]
	if !ok {
		return nil
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.items[item.Key()] = item
	r.writes.inc()
	return nil
}

func (r *OfferRepository) ListAvailableByFixture(_ context.Context, fixtureID string) ([]offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]offer.Offer, 0)
	for key, item := range r.items {
		if key.FixtureID == fixtureID && item.IsAvailable {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OfferRepository) Writes() int64 {
	return r.writes.load()
}
