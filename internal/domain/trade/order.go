package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle status of a logistics order
type OrderStatus string

const (
	OrderStatusDraft       OrderStatus = "draft"
	OrderStatusLocked      OrderStatus = "locked"
	OrderStatusDistributed OrderStatus = "distributed"
	OrderStatusFinancial   OrderStatus = "financial"
	OrderStatusCompleted   OrderStatus = "completed"
)

// IsValid checks if the status is a valid OrderStatus value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusLocked, OrderStatusDistributed,
		OrderStatusFinancial, OrderStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Status only moves forward, except for Locked back to Draft.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusLocked
	case OrderStatusLocked:
		return target == OrderStatusDraft || target == OrderStatusDistributed
	case OrderStatusDistributed:
		return target == OrderStatusFinancial
	case OrderStatusFinancial:
		return target == OrderStatusCompleted
	case OrderStatusCompleted:
		return false
	}
	return false
}

// IsEditable returns true while lines may be added or removed
func (s OrderStatus) IsEditable() bool {
	return s == OrderStatusDraft
}

// AcceptsAllocations returns true while the order is being distributed
func (s OrderStatus) AcceptsAllocations() bool {
	return s == OrderStatusLocked
}

// QuantityConverter converts a line quantity to tons
type QuantityConverter interface {
	ToCanonical(quantity decimal.Decimal, unit valueobject.MassUnit, containerTonnage *decimal.Decimal) (decimal.Decimal, error)
}

// OrderLine is a requested item on an order. Its canonical quantity is fixed
// at creation and is the baseline allocations are checked against.
type OrderLine struct {
	ID                      uuid.UUID
	OrderID                 uuid.UUID
	ItemID                  uuid.UUID
	Quantity                decimal.Decimal
	Unit                    valueobject.MassUnit
	QuantityInCanonicalUnit decimal.Decimal
	CreatedAt               time.Time
}

// Order is the aggregate root for a logistics order
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	CreatedBy        string
	Status           OrderStatus
	ContainerTonnage *decimal.Decimal
	Lines            []OrderLine
}

// LineSpec describes a requested line before it is converted to tons
type LineSpec struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
	Unit     valueobject.MassUnit
}

// NewOrder creates a draft order, optionally with an initial cart of lines.
// containerTonnage is optional; when set it must be positive.
func NewOrder(orderNumber, createdBy string, containerTonnage *decimal.Decimal, lines []LineSpec, conv QuantityConverter) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order number cannot be empty")
	}
	if containerTonnage != nil && !containerTonnage.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Container tonnage must be positive")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CreatedBy:         createdBy,
		Status:            OrderStatusDraft,
		ContainerTonnage:  containerTonnage,
		Lines:             make([]OrderLine, 0, len(lines)),
	}

	for _, spec := range lines {
		if _, err := order.appendLine(spec, conv); err != nil {
			return nil, err
		}
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order, createdBy))
	return order, nil
}

// AddLine appends a requested item. Only allowed in Draft status.
func (o *Order) AddLine(spec LineSpec, conv QuantityConverter, actorID string) (*OrderLine, error) {
	if !o.Status.IsEditable() {
		return nil, shared.NewDomainError(shared.CodeOrderNotEditable, fmt.Sprintf("Cannot add lines to order in %s status", o.Status))
	}

	line, err := o.appendLine(spec, conv)
	if err != nil {
		return nil, err
	}

	o.UpdatedAt = line.CreatedAt
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderLineAddedEvent(o, line, actorID))

	return &line, nil
}

func (o *Order) appendLine(spec LineSpec, conv QuantityConverter) (OrderLine, error) {
	if spec.ItemID == uuid.Nil {
		return OrderLine{}, shared.NewDomainError(shared.CodeInvalidInput, "Item ID cannot be empty")
	}

	tons, err := conv.ToCanonical(spec.Quantity, spec.Unit, o.ContainerTonnage)
	if err != nil {
		return OrderLine{}, err
	}

	line := OrderLine{
		ID:                      uuid.New(),
		OrderID:                 o.ID,
		ItemID:                  spec.ItemID,
		Quantity:                spec.Quantity,
		Unit:                    spec.Unit,
		QuantityInCanonicalUnit: tons,
		CreatedAt:               time.Now().UTC(),
	}
	o.Lines = append(o.Lines, line)
	return line, nil
}

// RemoveLine drops a line. Only allowed in Draft status.
func (o *Order) RemoveLine(lineID uuid.UUID, actorID string) error {
	if !o.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeOrderNotEditable, fmt.Sprintf("Cannot remove lines from order in %s status", o.Status))
	}

	for i, line := range o.Lines {
		if line.ID == lineID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.UpdatedAt = time.Now().UTC()
			o.IncrementVersion()
			o.AddDomainEvent(NewOrderLineRemovedEvent(o, line, actorID))
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Order line not found")
}

// Line returns the line with the given ID
func (o *Order) Line(lineID uuid.UUID) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// Lock closes the cart and opens distribution
func (o *Order) Lock(actorID string) error {
	if o.Status != OrderStatusDraft {
		return invalidTransition(o.Status, OrderStatusLocked)
	}
	o.transition(OrderStatusLocked, ActionLock, actorID)
	return nil
}

// Unlock returns a locked order to Draft. Once any allocation exists the
// distribution has begun and the order can no longer be unlocked.
func (o *Order) Unlock(distributionStarted bool, actorID string) error {
	if o.Status != OrderStatusLocked {
		return invalidTransition(o.Status, OrderStatusDraft)
	}
	if distributionStarted {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Cannot unlock order: distribution has begun")
	}
	o.transition(OrderStatusDraft, ActionUnlock, actorID)
	return nil
}

// MarkDistributed moves a locked order forward once every line is fully allocated
func (o *Order) MarkDistributed(fullyAllocated bool, actorID string) error {
	if o.Status != OrderStatusLocked {
		return invalidTransition(o.Status, OrderStatusDistributed)
	}
	if !fullyAllocated {
		return shared.ErrIncompleteAllocation
	}
	o.transition(OrderStatusDistributed, ActionStatusChange, actorID)
	return nil
}

// MarkFinancial moves a distributed order forward once every supplier is paid
func (o *Order) MarkFinancial(actorID string) error {
	if o.Status != OrderStatusDistributed {
		return invalidTransition(o.Status, OrderStatusFinancial)
	}
	o.transition(OrderStatusFinancial, ActionStatusChange, actorID)
	return nil
}

// Complete closes a settled order
func (o *Order) Complete(actorID string) error {
	if o.Status != OrderStatusFinancial {
		return invalidTransition(o.Status, OrderStatusCompleted)
	}
	o.transition(OrderStatusCompleted, ActionStatusChange, actorID)
	return nil
}

// MarkDeleted validates deletion and records the event. Only drafts may be deleted.
func (o *Order) MarkDeleted(actorID string) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError(shared.CodeOrderNotEditable, fmt.Sprintf("Cannot delete order in %s status", o.Status))
	}
	o.AddDomainEvent(NewOrderDeletedEvent(o, actorID))
	return nil
}

// TotalRequested sums canonical quantities over all lines
func (o *Order) TotalRequested() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.QuantityInCanonicalUnit)
	}
	return total
}

func (o *Order) transition(to OrderStatus, action StatusAction, actorID string) {
	from := o.Status
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, to, action, actorID))
}

func invalidTransition(from, to OrderStatus) error {
	return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot move order from %s to %s", from, to))
}
