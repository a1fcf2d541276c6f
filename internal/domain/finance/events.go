package finance

import (
	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment is the aggregate type for payment events
const AggregateTypePayment = "PaymentOperation"

// EventTypePaymentRecorded is raised for every accepted payment
const EventTypePaymentRecorded = "PaymentRecorded"

// PaymentRecordedEvent is raised when a payment is appended to the ledger
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"orderId"`
	TargetKind   TargetKind      `json:"targetKind"`
	AllocationID *uuid.UUID      `json:"allocationId,omitempty"`
	SupplierID   *uuid.UUID      `json:"supplierId,omitempty"`
	Type         PaymentType     `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p PaymentOperation, actorID string) *PaymentRecordedEvent {
	e := &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, actorID),
		OrderID:         p.OrderID,
		TargetKind:      p.Target.Kind,
		Type:            p.Type,
		Amount:          p.Amount,
		Currency:        p.Currency.String(),
	}
	if p.Target.IsLegacy() {
		id := p.Target.AllocationID
		e.AllocationID = &id
	} else {
		id := p.Target.SupplierID
		e.SupplierID = &id
	}
	return e
}
