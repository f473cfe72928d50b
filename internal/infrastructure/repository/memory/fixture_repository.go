package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/fixture"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
)

type FixtureRepository struct {
	mu     sync.RWMutex
	items  map[string]fixture.Fixture
	ids    id.Generator
	writes writeCounter
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		items[item.ID] = cloneFixture(item)
	}
	return &FixtureRepository{items: items, ids: id.NewUUIDGenerator()}
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[fixtureID]
	return cloneFixture(item), ok, nil
}

func (r *FixtureRepository) ListByPairingInWindow(_ context.Context, query fixture.WindowQuery) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item fixture.Fixture) bool {
		return item.LeagueID == query.LeagueID &&
			item.HomeTeamID == query.HomeTeamID &&
			item.AwayTeamID == query.AwayTeamID &&
			!item.KickoffAt.Before(query.From) &&
			!item.KickoffAt.After(query.To)
	}), nil
}

func (r *FixtureRepository) ListUpcoming(_ context.Context, leagueID string, from time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item fixture.Fixture) bool {
		return item.LeagueID == leagueID && !item.KickoffAt.Before(from)
	}), nil
}

func (r *FixtureRepository) ListUpcomingBySupplier(_ context.Context, leagueID, supplierID string, from time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item fixture.Fixture) bool {
		if item.LeagueID != leagueID || item.KickoffAt.Before(from) {
			return false
		}
		ref, ok := item.SupplierRef(supplierID)
		return ok && ref.SupplierExternalID != ""
	}), nil
}

func (r *FixtureRepository) Upsert(_ context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for existingID, existing := range r.items {
		sameID := item.ID != "" && existingID == item.ID
		sameExternal := item.ExternalFixtureID != 0 && existing.ExternalFixtureID == item.ExternalFixtureID
		sameSlug := item.ExternalFixtureID == 0 && existing.Slug == item.Slug
		if !sameID && !sameExternal && !sameSlug {
			continue
		}
		item.ID = existingID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = now
		item.SupplierRefs = existing.SupplierRefs
		item.MinPrice = existing.MinPrice
		r.items[existingID] = cloneFixture(item)
		r.writes.inc()
		return cloneFixture(item), nil
	}

	if item.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			return fixture.Fixture{}, err
		}
		item.ID = newID
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = cloneFixture(item)
	r.writes.inc()
	return cloneFixture(item), nil
}

func (r *FixtureRepository) UpdateSupplierRefs(_ context.Context, fixtureID string, refs []fixture.SupplierRef) error {
	return r.update(fixtureID, func(item *fixture.Fixture) {
		item.SupplierRefs = cloneRefs(refs)
	})
}

func (r *FixtureRepository) UpdateKickoff(_ context.Context, fixtureID string, kickoffAt time.Time, slug string) error {
	return r.update(fixtureID, func(item *fixture.Fixture) {
		item.KickoffAt = kickoffAt.UTC()
		item.Slug = slug
	})
}

func (r *FixtureRepository) UpdateMinPrice(_ context.Context, fixtureID string, price *fixture.MinPrice) error {
	return r.update(fixtureID, func(item *fixture.Fixture) {
		if price == nil {
			item.MinPrice = nil
			return
		}
		copied := *price
		item.MinPrice = &copied
	})
}

func (r *FixtureRepository) SwapHomeAway(_ context.Context, fixtureID, slug string) error {
	return r.update(fixtureID, func(item *fixture.Fixture) {
		item.HomeTeamID, item.AwayTeamID = item.AwayTeamID, item.HomeTeamID
		item.Slug = slug
	})
}

func (r *FixtureRepository) Writes() int64 {
	return r.writes.load()
}

func (r *FixtureRepository) update(fixtureID string, apply func(*fixture.Fixture)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[fixtureID]
	if !ok {
		return nil
	}
	apply(&item)
	item.UpdatedAt = time.Now().UTC()
	r.items[fixtureID] = item
	r.writes.inc()
	return nil
}

func (r *FixtureRepository) filter(keep func(fixture.Fixture) bool) []fixture.Fixture {
	out := make([]fixture.Fixture, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, cloneFixture(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneFixture(item fixture.Fixture) fixture.Fixture {
	item.SupplierRefs = cloneRefs(item.SupplierRefs)
	if item.MinPrice != nil {
		copied := *item.MinPrice
		item.MinPrice = &copied
	}
	return item
}

func cloneRefs(refs []fixture.SupplierRef) []fixture.SupplierRef {
	if refs == nil {
		return nil
	}
	out := make([]fixture.SupplierRef, len(refs))
	for i, ref := range refs {
		ref.Metadata = maps.Clone(ref.Metadata)
		out[i] = ref
	}
	return out
}
