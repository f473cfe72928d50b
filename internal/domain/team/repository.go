package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
	// ListBySupplier returns teams in the league carrying a supplier external id.
	ListBySupplier(ctx context.Context, leagueID, supplierID string) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByExternalID(ctx context.Context, externalTeamID int64) (Team, bool, error)
	// Upsert updates the row with item.ID when set, else inserts or updates by
	// external_team_id. It returns the stored row.
	Upsert(ctx context.Context, item Team) (Team, error)
	UpdateSupplierInfo(ctx context.Context, teamID string, info []SupplierInfo) error
}
