package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/supplier"
)

type SupplierRepository struct {
	mu     sync.RWMutex
	items  map[string]supplier.Supplier
	writes writeCounter
}

func NewSupplierRepository(suppliers []supplier.Supplier) *SupplierRepository {
	items := make(map[string]supplier.Supplier, len(suppliers))
	for _, s := range suppliers {
		items[s.ID] = s
	}
	return &SupplierRepository{items: items}
}

func (r *SupplierRepository) GetBySlug(_ context.Context, slug string) (supplier.Supplier, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.Slug == slug {
			return cloneSupplier(s), true, nil
		}
	}
	return supplier.Supplier{}, false, nil
}

func (r *SupplierRepository) GetByID(_ context.Context, supplierID string) (supplier.Supplier, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[supplierID]
	return cloneSupplier(s), ok, nil
}

func (r *SupplierRepository) MarkSynced(_ context.Context, supplierID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[supplierID]
	if !ok {
		return nil
	}
	at = at.UTC()
	s.Sync.LastSyncAt = &at
	r.items[supplierID] = s
	r.writes.inc()
	return nil
}

func (r *SupplierRepository) Writes() int64 {
	return r.writes.load()
}

func cloneSupplier(s supplier.Supplier) supplier.Supplier {
	s.Metadata = maps.Clone(s.Metadata)
	return s
}
