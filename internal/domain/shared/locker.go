package shared

import (
	"context"

	"github.com/google/uuid"
)

// Locker serialises mutations of a single aggregate across requests.
// The returned release function must always be called.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// OrderLockKey is the lock key guarding an order together with its
// allocations and payments
func OrderLockKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}
