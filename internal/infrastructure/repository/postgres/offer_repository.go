package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/offer"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/id"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

type OfferRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db, ids: id.NewUUIDGenerator()}
}

func (r *OfferRepository) FindByKey(ctx context.Context, key offer.Key) (offer.Offer, bool, error) {
	query, args, err := qb.Select("*").From("offers").
		Where(keyConditions(key)...).
		ToSQL()
	if err != nil {
		return offer.Offer{}, false, fmt.Errorf("build get offer by key query: %w", err)
	}

	var row offerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return offer.Offer{}, false, nil
		}
		return offer.Offer{}, false, fmt.Errorf("get offer by key: %w", err)
	}
	return row.toDomain(), true, nil
}

// Create inserts a new offer. When an offer with the same key already exists
// the stored row is returned unchanged.
func (r *OfferRepository) Create(ctx context.Context, item offer.Offer) (offer.Offer, error) {
	if item.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			return offer.Offer{}, fmt.Errorf("generate offer id: %w", err)
		}
		item.ID = newID
	}

	insertModel := offerInsertModel{
		PublicID:      item.ID,
		FixtureID:     item.FixtureID,
		OwnerType:     item.OwnerType,
		OwnerID:       item.OwnerID,
		Price:         item.Price,
		Currency:      item.Currency,
		TicketType:    item.TicketType,
		IsHospitality: item.IsHospitality,
		IsAvailable:   item.IsAvailable,
		URL:           item.URL,
		Notes:         item.Notes,
	}
	query, args, err := qb.InsertModel("offers", insertModel, `ON CONFLICT (fixture_public_id, owner_type, owner_public_id, ticket_type) WHERE deleted_at IS NULL
DO NOTHING
RETURNING *`)
	if err != nil {
		return offer.Offer{}, fmt.Errorf("build insert offer query: %w", err)
	}

	var row offerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if !isNotFound(err) {
			return offer.Offer{}, fmt.Errorf("insert offer: %w", err)
		}
		existing, found, findErr := r.FindByKey(ctx, item.Key())
		if findErr != nil {
			return offer.Offer{}, findErr
		}
		if !found {
			return offer.Offer{}, fmt.Errorf("insert offer: conflicting row for %s vanished", item.FixtureID)
		}
		return existing, nil
	}
	return row.toDomain(), nil
}

func (r *OfferRepository) Update(ctx context.Context, item offer.Offer) error {
	builder, err := qb.UpdateModel("offers", offerListingModel{
		Price:         item.Price,
		Currency:      item.Currency,
		IsHospitality: item.IsHospitality,
		IsAvailable:   item.IsAvailable,
		URL:           item.URL,
		Notes:         item.Notes,
	})
	if err != nil {
		return fmt.Errorf("build update offer query: %w", err)
	}
	query, args, err := builder.
		SetExpr("updated_at", "NOW()").
		Where(keyConditions(item.Key())...).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update offer query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	return nil
}

func (r *OfferRepository) ListAvailableByFixture(ctx context.Context, fixtureID string) ([]offer.Offer, error) {
	query, args, err := qb.Select("*").From("offers").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.Eq("is_available", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select available offers query: %w", err)
	}

	var rows []offerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select available offers: %w", err)
	}

	out := make([]offer.Offer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func keyConditions(key offer.Key) []qb.Condition {
	return []qb.Condition{
		qb.Eq("fixture_public_id", key.FixtureID),
		qb.Eq("owner_type", key.OwnerType),
		qb.Eq("owner_public_id", key.OwnerID),
		qb.Eq("ticket_type", key.TicketType),
		qb.IsNull("deleted_at"),
	}
}
