package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action names written to the audit trail
const (
	ActionCreateOrder       = "CREATE_ORDER"
	ActionAddOrderLine      = "ADD_ORDER_LINE"
	ActionRemoveOrderLine   = "REMOVE_ORDER_LINE"
	ActionDeleteOrder       = "DELETE_ORDER"
	ActionLockOrder         = "LOCK_ORDER"
	ActionUnlockOrder       = "UNLOCK_ORDER"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionCreateAllocation  = "CREATE_ALLOCATION"
	ActionDeleteAllocation  = "DELETE_ALLOCATION"
	ActionCreatePayment     = "CREATE_PAYMENT"
)

// Log is one append-only audit fact
type Log struct {
	ID         uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	UserID     string
	Timestamp  time.Time
	Details    json.RawMessage
}

// Filter narrows audit queries. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   uuid.UUID
	Limit      int
}

// Matches reports whether l passes the filter
func (f Filter) Matches(l Log) bool {
	if f.EntityType != "" && f.EntityType != l.EntityType {
		return false
	}
	if f.EntityID != uuid.Nil && f.EntityID != l.EntityID {
		return false
	}
	return true
}

// Repository appends and queries audit facts
type Repository interface {
	Append(ctx context.Context, entry *Log) error
	// Find returns matching entries, newest first
	Find(ctx context.Context, filter Filter) ([]Log, error)
}
