package offer

import "context"

// Repository describes offer persistence needs from use cases.
type Repository interface {
	FindByKey(ctx context.Context, key Key) (Offer, bool, error)
	Create(ctx context.Context, item Offer) (Offer, error)
	Update(ctx context.Context, item Offer) error
	ListAvailableByFixture(ctx context.Context, fixtureID string) ([]Offer, error)
}
