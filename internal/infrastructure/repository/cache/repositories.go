package cache

import (
	"context"
	"slices"
	"strconv"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/league"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
	basecache "github.com/riskibarqy/ticket-marketplace/internal/platform/cache"
)

const (
	leaguePrefix = "league:"
	teamPrefix   = "team:"
	venuePrefix  = "venue:"
)

type cachedLookup[T any] struct {
	value  T
	exists bool
}

func lookup[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) (T, bool, error)) (T, bool, error) {
	cached, err := basecache.Load(ctx, store, key, func(ctx context.Context) (cachedLookup[T], error) {
		value, exists, err := load(ctx)
		if err != nil {
			return cachedLookup[T]{}, err
		}
		return cachedLookup[T]{value: value, exists: exists}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return cached.value, cached.exists, nil
}

// LeagueRepository caches the read-only league catalogue.
type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := basecache.Load(ctx, r.cache, leaguePrefix+"list", r.next.List)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return lookup(ctx, r.cache, leaguePrefix+"id:"+leagueID, func(ctx context.Context) (league.League, bool, error) {
		return r.next.GetByID(ctx, leagueID)
	})
}

func (r *LeagueRepository) GetBySlug(ctx context.Context, slug string) (league.League, bool, error) {
	return lookup(ctx, r.cache, leaguePrefix+"slug:"+slug, func(ctx context.Context) (league.League, bool, error) {
		return r.next.GetBySlug(ctx, slug)
	})
}

// TeamRepository caches the team reads used by name resolution. Any write
// drops every cached team entry.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	items, err := basecache.Load(ctx, r.cache, teamPrefix+"list", r.next.List)
	if err != nil {
		return nil, err
	}
	return cloneTeams(items), nil
}

func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error) {
	items, err := basecache.Load(ctx, r.cache, teamPrefix+"league:"+leagueID, func(ctx context.Context) ([]team.Team, error) {
		return r.next.ListByLeague(ctx, leagueID)
	})
	if err != nil {
		return nil, err
	}
	return cloneTeams(items), nil
}

// ListBySupplier is not cached; it reflects mappings written during a run.
func (r *TeamRepository) ListBySupplier(ctx context.Context, leagueID, supplierID string) ([]team.Team, error) {
	return r.next.ListBySupplier(ctx, leagueID, supplierID)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	item, exists, err := lookup(ctx, r.cache, teamPrefix+"id:"+teamID, func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByID(ctx, teamID)
	})
	return cloneTeam(item), exists, err
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalTeamID int64) (team.Team, bool, error) {
	key := teamPrefix + "external:" + strconv.FormatInt(externalTeamID, 10)
	item, exists, err := lookup(ctx, r.cache, key, func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByExternalID(ctx, externalTeamID)
	})
	return cloneTeam(item), exists, err
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	defer r.cache.DeletePrefix(ctx, teamPrefix)
	return r.next.Upsert(ctx, item)
}

func (r *TeamRepository) UpdateSupplierInfo(ctx context.Context, teamID string, info []team.SupplierInfo) error {
	defer r.cache.DeletePrefix(ctx, teamPrefix)
	return r.next.UpdateSupplierInfo(ctx, teamID, info)
}

// VenueRepository caches venue lookups. Upsert drops every cached venue entry.
type VenueRepository struct {
	next  venue.Repository
	cache *basecache.Store
}

func NewVenueRepository(next venue.Repository, cache *basecache.Store) *VenueRepository {
	return &VenueRepository{next: next, cache: cache}
}

func (r *VenueRepository) List(ctx context.Context) ([]venue.Venue, error) {
	items, err := basecache.Load(ctx, r.cache, venuePrefix+"list", r.next.List)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *VenueRepository) GetByID(ctx context.Context, venueID string) (venue.Venue, bool, error) {
	return lookup(ctx, r.cache, venuePrefix+"id:"+venueID, func(ctx context.Context) (venue.Venue, bool, error) {
		return r.next.GetByID(ctx, venueID)
	})
}

func (r *VenueRepository) GetByExternalID(ctx context.Context, externalVenueID int64) (venue.Venue, bool, error) {
	key := venuePrefix + "external:" + strconv.FormatInt(externalVenueID, 10)
	return lookup(ctx, r.cache, key, func(ctx context.Context) (venue.Venue, bool, error) {
		return r.next.GetByExternalID(ctx, externalVenueID)
	})
}

func (r *VenueRepository) GetByProviderID(ctx context.Context, provider string, providerVenueID int64) (venue.Venue, bool, error) {
	key := venuePrefix + "provider:" + provider + ":" + strconv.FormatInt(providerVenueID, 10)
	return lookup(ctx, r.cache, key, func(ctx context.Context) (venue.Venue, bool, error) {
		return r.next.GetByProviderID(ctx, provider, providerVenueID)
	})
}

func (r *VenueRepository) Upsert(ctx context.Context, item venue.Venue) (venue.Venue, error) {
	defer r.cache.DeletePrefix(ctx, venuePrefix)
	return r.next.Upsert(ctx, item)
}

func cloneTeams(items []team.Team) []team.Team {
	out := make([]team.Team, len(items))
	for i, item := range items {
		out[i] = cloneTeam(item)
	}
	return out
}

func cloneTeam(item team.Team) team.Team {
	item.LeagueIDs = slices.Clone(item.LeagueIDs)
	item.SupplierInfo = slices.Clone(item.SupplierInfo)
	return item
}
