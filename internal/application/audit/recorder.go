// Package audit writes one audit fact per ledger mutation and serves the
// audit trail to the API.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/audit"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/trade"
)

// Recorder turns domain events into audit log entries. It subscribes to
// every event on the bus; events without an audit action are ignored.
type Recorder struct {
	repo audit.Repository
}

// NewRecorder creates a new Recorder
func NewRecorder(repo audit.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// EventTypes implements shared.EventHandler. Empty means all events.
func (r *Recorder) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	action, ok := actionFor(event)
	if !ok {
		return nil
	}

	details, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit details for %s: %w", event.EventType(), err)
	}

	userID := event.ActorID()
	if userID == "" {
		userID = shared.SystemActor
	}
	return r.repo.Append(ctx, &audit.Log{
		ID:         uuid.New(),
		Action:     action,
		EntityType: event.AggregateType(),
		EntityID:   event.AggregateID(),
		UserID:     userID,
		Timestamp:  event.OccurredAt(),
		Details:    details,
	})
}

func actionFor(event shared.DomainEvent) (string, bool) {
	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		return audit.ActionCreateOrder, true
	case *trade.OrderLineAddedEvent:
		return audit.ActionAddOrderLine, true
	case *trade.OrderLineRemovedEvent:
		return audit.ActionRemoveOrderLine, true
	case *trade.OrderDeletedEvent:
		return audit.ActionDeleteOrder, true
	case *trade.OrderStatusChangedEvent:
		switch e.Action {
		case trade.ActionLock:
			return audit.ActionLockOrder, true
		case trade.ActionUnlock:
			return audit.ActionUnlockOrder, true
		default:
			return audit.ActionUpdateOrderStatus, true
		}
	case *distribution.AllocationCreatedEvent:
		return audit.ActionCreateAllocation, true
	case *distribution.AllocationRemovedEvent:
		return audit.ActionDeleteAllocation, true
	case *finance.PaymentRecordedEvent:
		return audit.ActionCreatePayment, true
	}
	return "", false
}

var _ shared.EventHandler = (*Recorder)(nil)
