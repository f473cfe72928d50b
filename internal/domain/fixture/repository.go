package fixture

import (
	"context"
	"time"
)

// WindowQuery selects fixtures of one home/away pairing within a kickoff range.
type WindowQuery struct {
	LeagueID   string
	HomeTeamID string
	AwayTeamID string
	From       time.Time
	To         time.Time
}

// Repository exposes fixture persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListByPairingInWindow(ctx context.Context, query WindowQuery) ([]Fixture, error)
	// ListUpcoming returns fixtures with kickoff at or after from, ordered by kickoff.
	ListUpcoming(ctx context.Context, leagueID string, from time.Time) ([]Fixture, error)
	ListUpcomingBySupplier(ctx context.Context, leagueID, supplierID string, from time.Time) ([]Fixture, error)
	// Upsert updates the row with item.ID when set, else inserts or updates by
	// external_fixture_id, falling back to slug.
	Upsert(ctx context.Context, item Fixture) (Fixture, error)
	UpdateSupplierRefs(ctx context.Context, fixtureID string, refs []SupplierRef) error
	// UpdateKickoff moves the kickoff and stores the slug rebuilt for its new date.
	UpdateKickoff(ctx context.Context, fixtureID string, kickoffAt time.Time, slug string) error
	UpdateMinPrice(ctx context.Context, fixtureID string, price *MinPrice) error
	// SwapHomeAway exchanges home and away team ids and stores the new slug.
	SwapHomeAway(ctx context.Context, fixtureID, slug string) error
}
