package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/matching"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/team"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/venue"
)

// VenueQuery carries whatever a provider knows about a venue.
type VenueQuery struct {
	Provider        string
	ProviderVenueID int64
	Name            string
	City            string
	HomeTeamID      string
}

type VenueMatch struct {
	Venue        venue.Venue
	Tier         matching.Tier
	Reason       string
	RemappedFrom int64
	Ambiguous    bool
}

func (m VenueMatch) Found() bool {
	return m.Tier.Found()
}

type VenueResolverOptions struct {
	// PrimaryProvider owns external_venue_id; other providers use external_ids.
	PrimaryProvider      string
	Remap                VenueRemap
	MinContainmentLength int
}

type VenueResolver struct {
	venueRepo venue.Repository
	teamRepo  team.Repository
	primary   string
	remap     VenueRemap
	minLen    int
}

func NewVenueResolver(venueRepo venue.Repository, teamRepo team.Repository, opts VenueResolverOptions) *VenueResolver {
	minLen := opts.MinContainmentLength
	if minLen <= 0 {
		minLen = matching.DefaultMinContainmentLength
	}
	return &VenueResolver{
		venueRepo: venueRepo,
		teamRepo:  teamRepo,
		primary:   strings.ToLower(strings.TrimSpace(opts.PrimaryProvider)),
		remap:     opts.Remap,
		minLen:    minLen,
	}
}

// ResolveVenue tries the provider id, then the remap table, then a
// name and city lookup, then the home team's own venue.
func (r *VenueResolver) ResolveVenue(ctx context.Context, query VenueQuery) (VenueMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VenueResolver.ResolveVenue",
		attribute.String("provider", query.Provider),
		attribute.Int64("provider_venue_id", query.ProviderVenueID),
	)
	defer span.End()

	if query.ProviderVenueID == 0 && strings.TrimSpace(query.Name) == "" && strings.TrimSpace(query.HomeTeamID) == "" {
		return VenueMatch{}, fmt.Errorf("%w: venue id, name or home team is required", ErrInvalidInput)
	}

	if query.ProviderVenueID != 0 {
		item, ok, err := r.byProviderID(ctx, query.Provider, query.ProviderVenueID)
		if err != nil {
			return VenueMatch{}, err
		}
		if ok {
			return VenueMatch{Venue: item, Tier: matching.ExactMatch, Reason: "provider venue id"}, nil
		}

		if to, remapped := r.remap.Lookup(query.Provider, query.ProviderVenueID); remapped {
			item, ok, err = r.byProviderID(ctx, query.Provider, to)
			if err != nil {
				return VenueMatch{}, err
			}
			if ok {
				return VenueMatch{
					Venue:        item,
					Tier:         matching.RemappedMatch,
					Reason:       fmt.Sprintf("remapped %d -> %d", query.ProviderVenueID, to),
					RemappedFrom: query.ProviderVenueID,
				}, nil
			}
		}
	}

	if name := matching.Normalize(query.Name); name != "" {
		items, err := r.venueRepo.List(ctx)
		if err != nil {
			return VenueMatch{}, fmt.Errorf("list venues: %w", err)
		}
		city := matching.Normalize(query.City)
		var hits []venue.Venue
		for _, item := range items {
			if !matching.Contains(name, matching.Normalize(item.NameEN), r.minLen) {
				continue
			}
			if city != "" && !matching.Contains(city, matching.Normalize(item.CityEN), 0) {
				continue
			}
			hits = append(hits, item)
		}
		if len(hits) > 0 {
			return VenueMatch{
				Venue:     hits[0],
				Tier:      matching.HeuristicMatch,
				Reason:    "venue name and city",
				Ambiguous: len(hits) > 1,
			}, nil
		}
	}

	if homeTeamID := strings.TrimSpace(query.HomeTeamID); homeTeamID != "" {
		home, ok, err := r.teamRepo.GetByID(ctx, homeTeamID)
		if err != nil {
			return VenueMatch{}, fmt.Errorf("get home team: %w", err)
		}
		if ok && home.VenueID != "" {
			item, found, err := r.venueRepo.GetByID(ctx, home.VenueID)
			if err != nil {
				return VenueMatch{}, fmt.Errorf("get home team venue: %w", err)
			}
			if found {
				return VenueMatch{Venue: item, Tier: matching.HeuristicMatch, Reason: "home team venue"}, nil
			}
		}
	}

	return VenueMatch{Tier: matching.NoMatch, Reason: "no tier matched"}, nil
}

func (r *VenueResolver) byProviderID(ctx context.Context, provider string, venueID int64) (venue.Venue, bool, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || provider == r.primary {
		item, ok, err := r.venueRepo.GetByExternalID(ctx, venueID)
		if err != nil {
			return venue.Venue{}, false, fmt.Errorf("get venue by external id: %w", err)
		}
		return item, ok, nil
	}
	item, ok, err := r.venueRepo.GetByProviderID(ctx, provider, venueID)
	if err != nil {
		return venue.Venue{}, false, fmt.Errorf("get venue by provider id: %w", err)
	}
	return item, ok, nil
}
