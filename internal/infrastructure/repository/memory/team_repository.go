package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
)

type TeamRepository struct {
	mu     sync.RWMutex
	items  map[string]team.Team
	ids    id.Generator
	writes writeCounter
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		items[item.ID] = cloneTeam(item)
	}
	return &TeamRepository{items: items, ids: id.NewUUIDGenerator()}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(team.Team) bool { return true }), nil
}

func (r *TeamRepository) ListByLeague(_ context.Context, leagueID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item team.Team) bool { return item.InLeague(leagueID) }), nil
}

func (r *TeamRepository) ListBySupplier(_ context.Context, leagueID, supplierID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item team.Team) bool {
		if !item.InLeague(leagueID) {
			return false
		}
		entry, ok := item.SupplierEntry(supplierID)
		return ok && entry.SupplierExternalID != ""
	}), nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[teamID]
	return cloneTeam(item), ok, nil
}

func (r *TeamRepository) GetByExternalID(_ context.Context, externalTeamID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ExternalTeamID == externalTeamID {
			return cloneTeam(item), true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) Upsert(_ context.Context, item team.Team) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for existingID, existing := range r.items {
		sameID := item.ID != "" && existingID == item.ID
		sameExternal := item.ExternalTeamID != 0 && existing.ExternalTeamID == item.ExternalTeamID
		if !sameID && !sameExternal {
			continue
		}
		item.ID = existingID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = now
		// Mappings are owned by the mapping service, not by imports.
		item.SupplierInfo = existing.SupplierInfo
		r.items[existingID] = cloneTeam(item)
		r.writes.inc()
		return cloneTeam(item), nil
	}

	if item.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			return team.Team{}, err
		}
		item.ID = newID
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = cloneTeam(item)
	r.writes.inc()
	return cloneTeam(item), nil
}

func (r *TeamRepository) UpdateSupplierInfo(_ context.Context, teamID string, info []team.SupplierInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[teamID]
	if !ok {
		return nil
	}
	item.SupplierInfo = slices.Clone(info)
	item.UpdatedAt = time.Now().UTC()
	r.items[teamID] = item
	r.writes.inc()
	return nil
}

func (r *TeamRepository) Writes() int64 {
	return r.writes.load()
}

func (r *TeamRepository) filter(keep func(team.Team) bool) []team.Team {
	out := make([]team.Team, 0, len(r.items))
	for _, item := range r.items {
		if keep(item) {
			out = append(out, cloneTeam(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func cloneTeam(item team.Team) team.Team {
	item.LeagueIDs = slices.Clone(item.LeagueIDs)
	item.SupplierInfo = slices.Clone(item.SupplierInfo)
	return item
}
