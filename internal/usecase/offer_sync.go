package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

// OfferAction is what upsertOffer did with a desired offer.
type OfferAction string

const (
	OfferCreated OfferAction = "created"
	OfferUpdated OfferAction = "updated"
	OfferSkipped OfferAction = "skipped"
)

// upsertOffer applies find-or-create on the offer key. An existing offer
// with the same listing state is left untouched.
func upsertOffer(ctx context.Context, repo offer.Repository, desired offer.Offer) (OfferAction, error) {
	if err := desired.Validate(); err != nil {
		return OfferSkipped, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, found, err := repo.FindByKey(ctx, desired.Key())
	if err != nil {
		return OfferSkipped, fmt.Errorf("find offer: %w", err)
	}
	if !found {
		if _, err := repo.Create(ctx, desired); err != nil {
			return OfferSkipped, fmt.Errorf("create offer: %w", err)
		}
		return OfferCreated, nil
	}
	if existing.SameListing(desired) {
		return OfferSkipped, nil
	}

	desired.ID = existing.ID
	desired.CreatedAt = existing.CreatedAt
	if err := repo.Update(ctx, desired); err != nil {
		return OfferSkipped, fmt.Errorf("update offer: %w", err)
	}
	return OfferUpdated, nil
}

func recordOffer(stats *workerrun.Stats, action OfferAction) {
	switch action {
	case OfferCreated:
		stats.OffersCreated++
	case OfferUpdated:
		stats.OffersUpdated++
	default:
		stats.OffersSkipped++
	}
}
