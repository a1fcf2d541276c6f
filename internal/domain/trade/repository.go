package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	Status *OrderStatus
}

// OrderRepository defines persistence for orders and their lines
type OrderRepository interface {
	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll lists orders, newest first
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, error)

	// FindByLineID loads the order owning a line
	FindByLineID(ctx context.Context, lineID uuid.UUID) (*Order, error)

	// OrderNumbers returns every persisted order number
	OrderNumbers(ctx context.Context) ([]string, error)

	// Save creates or updates an order together with its lines.
	// A stale aggregate version fails with shared.ErrConcurrencyConflict.
	Save(ctx context.Context, order *Order) error

	// Delete removes an order and all of its lines
	Delete(ctx context.Context, id uuid.UUID) error
}
