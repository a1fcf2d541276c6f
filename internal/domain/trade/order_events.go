package trade

import (
	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeOrder     = "Order"
	AggregateTypeOrderLine = "OrderLine"
)

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderLineAdded     = "OrderLineAdded"
	EventTypeOrderLineRemoved   = "OrderLineRemoved"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderDeleted       = "OrderDeleted"
)

// StatusAction distinguishes manual lock toggles from ledger-driven transitions
type StatusAction string

const (
	ActionLock         StatusAction = "LOCK_ORDER"
	ActionUnlock       StatusAction = "UNLOCK_ORDER"
	ActionStatusChange StatusAction = "UPDATE_ORDER_STATUS"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber      string           `json:"orderNumber"`
	Status           OrderStatus      `json:"status"`
	ContainerTonnage *decimal.Decimal `json:"containerTonnage,omitempty"`
	ItemsCount       int              `json:"itemsCount"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order, actorID string) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID, actorID),
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		ContainerTonnage: order.ContainerTonnage,
		ItemsCount:       len(order.Lines),
	}
}

// OrderLineAddedEvent is raised when a line is appended to a draft order
type OrderLineAddedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"orderId"`
	ItemID         uuid.UUID       `json:"itemId"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	QuantityInTons decimal.Decimal `json:"quantityInTons"`
}

// NewOrderLineAddedEvent creates a new OrderLineAddedEvent
func NewOrderLineAddedEvent(order *Order, line OrderLine, actorID string) *OrderLineAddedEvent {
	return &OrderLineAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderLineAdded, AggregateTypeOrderLine, line.ID, actorID),
		OrderID:         order.ID,
		ItemID:          line.ItemID,
		Quantity:        line.Quantity,
		Unit:            line.Unit.String(),
		QuantityInTons:  line.QuantityInCanonicalUnit,
	}
}

// OrderLineRemovedEvent is raised when a line is dropped from a draft order
type OrderLineRemovedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"orderId"`
	ItemID  uuid.UUID `json:"itemId"`
}

// NewOrderLineRemovedEvent creates a new OrderLineRemovedEvent
func NewOrderLineRemovedEvent(order *Order, line OrderLine, actorID string) *OrderLineRemovedEvent {
	return &OrderLineRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderLineRemoved, AggregateTypeOrderLine, line.ID, actorID),
		OrderID:         order.ID,
		ItemID:          line.ItemID,
	}
}

// OrderStatusChangedEvent is raised on every lifecycle transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string       `json:"orderNumber"`
	From        OrderStatus  `json:"from"`
	To          OrderStatus  `json:"status"`
	Action      StatusAction `json:"-"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from, to OrderStatus, action StatusAction, actorID string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID, actorID),
		OrderNumber:     order.OrderNumber,
		From:            from,
		To:              to,
		Action:          action,
	}
}

// OrderDeletedEvent is raised when a draft order is removed
type OrderDeletedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"orderNumber"`
	LinesCount  int    `json:"linesCount"`
}

// NewOrderDeletedEvent creates a new OrderDeletedEvent
func NewOrderDeletedEvent(order *Order, actorID string) *OrderDeletedEvent {
	return &OrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDeleted, AggregateTypeOrder, order.ID, actorID),
		OrderNumber:     order.OrderNumber,
		LinesCount:      len(order.Lines),
	}
}
