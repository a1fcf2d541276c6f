package finance

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payment operations. There is no update or delete.
type PaymentRepository interface {
	// FindForOrder returns current-mode payments addressed to the order plus
	// legacy payments against any of allocationIDs, in recording order.
	FindForOrder(ctx context.Context, orderID uuid.UUID, allocationIDs []uuid.UUID) ([]PaymentOperation, error)

	// SaveLedger appends the ledger's new payments. It fails with
	// shared.ErrConcurrencyConflict when another payment for the order was
	// stored after the ledger was loaded.
	SaveLedger(ctx context.Context, ledger *Ledger) error
}
