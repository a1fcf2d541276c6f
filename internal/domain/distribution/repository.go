package distribution

import (
	"context"

	"github.com/google/uuid"
)

// AllocationRepository persists allocations
type AllocationRepository interface {
	// FindByOrder returns all allocations of an order in creation order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Allocation, error)

	// FindByID returns one allocation
	FindByID(ctx context.Context, id uuid.UUID) (*Allocation, error)

	// SaveLedger writes the ledger's allocations for its order. It fails with
	// shared.ErrConcurrencyConflict when the order's stored allocations no
	// longer match the ledger baseline.
	SaveLedger(ctx context.Context, ledger *Ledger) error
}
