package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// AllocationRepository implements distribution.AllocationRepository over the
// allocations collection
type AllocationRepository struct {
	allocations collection[models.AllocationModel]
}

// NewAllocationRepository creates an allocation repository on s
func NewAllocationRepository(s store.CollectionStore) *AllocationRepository {
	return &AllocationRepository{
		allocations: newCollection[models.AllocationModel](s, store.KeyAllocations),
	}
}

// FindByOrder returns the order's allocations in creation order
func (r *AllocationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]distribution.Allocation, error) {
	records, err := r.allocations.all(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]distribution.Allocation, 0)
	for i := range records {
		if records[i].OrderID != orderID {
			continue
		}
		a, err := records[i].ToDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, nil
}

// FindByID returns one allocation
func (r *AllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*distribution.Allocation, error) {
	records, err := r.allocations.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return records[i].ToDomain()
		}
	}
	return nil, shared.ErrNotFound
}

// SaveLedger replaces the order's allocations with the ledger's. Allocations
// of other orders are merged untouched, so concurrent writers on different
// orders never conflict; a writer on the same order fails the baseline check.
func (r *AllocationRepository) SaveLedger(ctx context.Context, ledger *distribution.Ledger) error {
	orderID := ledger.Order().ID
	baseline := idSet(ledger.Baseline())

	return r.allocations.update(ctx, func(records []models.AllocationModel) ([]models.AllocationModel, error) {
		next := make([]models.AllocationModel, 0, len(records)+1)
		stored := 0
		for _, record := range records {
			if record.OrderID != orderID {
				next = append(next, record)
				continue
			}
			if _, ok := baseline[record.ID]; !ok {
				return nil, shared.ErrConcurrencyConflict
			}
			stored++
		}
		if stored != len(baseline) {
			return nil, shared.ErrConcurrencyConflict
		}

		for _, a := range ledger.Allocations() {
			next = append(next, models.AllocationModelFromDomain(a))
		}
		return next, nil
	})
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ distribution.AllocationRepository = (*AllocationRepository)(nil)
