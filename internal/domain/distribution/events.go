package distribution

import (
	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeAllocation is the aggregate type for allocation events
const AggregateTypeAllocation = "Allocation"

// Event type constants
const (
	EventTypeAllocationCreated = "AllocationCreated"
	EventTypeAllocationRemoved = "AllocationRemoved"
)

// AllocationCreatedEvent is raised when part of a line is assigned to a supplier
type AllocationCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"orderId"`
	OrderLineID    uuid.UUID       `json:"orderLineId"`
	SupplierID     uuid.UUID       `json:"supplierId"`
	QuantityInTons decimal.Decimal `json:"quantityInTons"`
	PricePerTon    decimal.Decimal `json:"pricePerTon"`
	Currency       string          `json:"currency"`
	TotalSum       decimal.Decimal `json:"totalSum"`
}

// NewAllocationCreatedEvent creates a new AllocationCreatedEvent
func NewAllocationCreatedEvent(a Allocation, actorID string) *AllocationCreatedEvent {
	return &AllocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationCreated, AggregateTypeAllocation, a.ID, actorID),
		OrderID:         a.OrderID,
		OrderLineID:     a.OrderLineID,
		SupplierID:      a.SupplierID,
		QuantityInTons:  a.QuantityInCanonicalUnit,
		PricePerTon:     a.PricePerCanonicalUnit,
		Currency:        a.SettlementCurrency().String(),
		TotalSum:        a.TotalSum,
	}
}

// AllocationRemovedEvent is raised when an allocation is retracted or replaced
type AllocationRemovedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"orderId"`
	OrderLineID    uuid.UUID       `json:"orderLineId"`
	SupplierID     uuid.UUID       `json:"supplierId"`
	QuantityInTons decimal.Decimal `json:"quantityInTons"`
}

// NewAllocationRemovedEvent creates a new AllocationRemovedEvent
func NewAllocationRemovedEvent(a Allocation, actorID string) *AllocationRemovedEvent {
	return &AllocationRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationRemoved, AggregateTypeAllocation, a.ID, actorID),
		OrderID:         a.OrderID,
		OrderLineID:     a.OrderLineID,
		SupplierID:      a.SupplierID,
		QuantityInTons:  a.QuantityInCanonicalUnit,
	}
}
