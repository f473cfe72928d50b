package supplier

import (
	"context"
	"time"
)

// Repository describes supplier persistence needs from use cases.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (Supplier, bool, error)
	GetByID(ctx context.Context, supplierID string) (Supplier, bool, error)
	MarkSynced(ctx context.Context, supplierID string, at time.Time) error
}
