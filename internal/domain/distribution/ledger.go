package distribution

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Ledger holds every allocation of one order and guards that no line is
// ever allocated beyond its requested tons.
type Ledger struct {
	order       *trade.Order
	allocations []Allocation
	baseline    []uuid.UUID
	events      []shared.DomainEvent
}

// NewLedger builds the allocation ledger of order from its persisted allocations
func NewLedger(order *trade.Order, allocations []Allocation) *Ledger {
	baseline := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		baseline = append(baseline, a.ID)
	}
	return &Ledger{
		order:       order,
		allocations: append([]Allocation(nil), allocations...),
		baseline:    baseline,
	}
}

// Order returns the order the ledger belongs to
func (l *Ledger) Order() *trade.Order {
	return l.order
}

// Allocations returns the current allocations in creation order
func (l *Ledger) Allocations() []Allocation {
	return l.allocations
}

// Baseline returns the allocation IDs present when the ledger was loaded
func (l *Ledger) Baseline() []uuid.UUID {
	return l.baseline
}

// Events returns the domain events raised since the ledger was loaded
func (l *Ledger) Events() []shared.DomainEvent {
	return l.events
}

// HasAllocations reports whether distribution has begun
func (l *Ledger) HasAllocations() bool {
	return len(l.allocations) > 0
}

// Find returns the allocation with the given ID
func (l *Ledger) Find(id uuid.UUID) (Allocation, bool) {
	for _, a := range l.allocations {
		if a.ID == id {
			return a, true
		}
	}
	return Allocation{}, false
}

// ForLine returns the allocations of one line
func (l *Ledger) ForLine(lineID uuid.UUID) []Allocation {
	result := make([]Allocation, 0)
	for _, a := range l.allocations {
		if a.OrderLineID == lineID {
			result = append(result, a)
		}
	}
	return result
}

// Allocate converts the requested quantity to tons and records a new allocation,
// failing with OVER_ALLOCATION when the line would exceed its requested tons.
func (l *Ledger) Allocate(spec AllocationSpec, conv trade.QuantityConverter, actorID string) (*Allocation, error) {
	allocation, err := l.build(spec, conv, actorID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	l.allocations = append(l.allocations, allocation)
	l.events = append(l.events, NewAllocationCreatedEvent(allocation, actorID))
	return &allocation, nil
}

// Replace swaps an allocation for a new one. The old allocation's tons are
// excluded before the over-allocation check; on failure nothing changes.
func (l *Ledger) Replace(oldID uuid.UUID, spec AllocationSpec, conv trade.QuantityConverter, actorID string) (*Allocation, error) {
	old, ok := l.Find(oldID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Allocation not found")
	}

	allocation, err := l.build(spec, conv, actorID, oldID)
	if err != nil {
		return nil, err
	}

	l.remove(oldID)
	l.allocations = append(l.allocations, allocation)
	l.events = append(l.events,
		NewAllocationRemovedEvent(old, actorID),
		NewAllocationCreatedEvent(allocation, actorID),
	)
	return &allocation, nil
}

// Deallocate removes an allocation. The ledger does not check for payments
// against it; callers decide whether retraction is allowed.
func (l *Ledger) Deallocate(id uuid.UUID, actorID string) error {
	if err := l.ensureEditable(); err != nil {
		return err
	}
	old, ok := l.Find(id)
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound, "Allocation not found")
	}

	l.remove(id)
	l.events = append(l.events, NewAllocationRemovedEvent(old, actorID))
	return nil
}

// AllocatedForLine sums the tons allocated to a line
func (l *Ledger) AllocatedForLine(lineID uuid.UUID) decimal.Decimal {
	return l.allocatedExcluding(lineID, uuid.Nil)
}

// RemainingForLine returns requested minus allocated tons for a line
func (l *Ledger) RemainingForLine(lineID uuid.UUID) (decimal.Decimal, error) {
	line, ok := l.order.Line(lineID)
	if !ok {
		return decimal.Zero, shared.NewDomainError(shared.CodeNotFound, "Order line not found")
	}
	return line.QuantityInCanonicalUnit.Sub(l.AllocatedForLine(lineID)), nil
}

// IsFullyAllocated is true when every line has nothing left to allocate.
// Lines requesting zero tons are trivially complete.
func (l *Ledger) IsFullyAllocated() bool {
	for _, line := range l.order.Lines {
		if !line.QuantityInCanonicalUnit.Equal(l.AllocatedForLine(line.ID)) {
			return false
		}
	}
	return true
}

func (l *Ledger) build(spec AllocationSpec, conv trade.QuantityConverter, actorID string, replacing uuid.UUID) (Allocation, error) {
	if err := l.ensureEditable(); err != nil {
		return Allocation{}, err
	}

	line, ok := l.order.Line(spec.OrderLineID)
	if !ok {
		return Allocation{}, shared.NewDomainError(shared.CodeNotFound, "Order line not found")
	}
	if spec.SupplierID == uuid.Nil {
		return Allocation{}, shared.NewDomainError(shared.CodeInvalidInput, "Supplier ID cannot be empty")
	}
	if !spec.PricePerCanonicalUnit.IsPositive() {
		return Allocation{}, shared.ErrInvalidPrice
	}

	currency := spec.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return Allocation{}, shared.NewDomainError(shared.CodeInvalidCurrency, "unsupported currency: "+string(currency))
	}

	tons, err := conv.ToCanonical(spec.Quantity, spec.Unit, l.order.ContainerTonnage)
	if err != nil {
		return Allocation{}, err
	}
	if !tons.IsPositive() {
		return Allocation{}, shared.NewDomainError(shared.CodeInvalidQuantity, "Allocated quantity must be positive")
	}

	allocated := l.allocatedExcluding(line.ID, replacing)
	if allocated.Add(tons).GreaterThan(line.QuantityInCanonicalUnit) {
		return Allocation{}, shared.NewDomainError(shared.CodeOverAllocation, fmt.Sprintf(
			"Cannot allocate %s t: line requests %s t and %s t is already allocated",
			tons, line.QuantityInCanonicalUnit, allocated))
	}

	return Allocation{
		ID:                      uuid.New(),
		OrderID:                 l.order.ID,
		OrderLineID:             line.ID,
		SupplierID:              spec.SupplierID,
		ItemID:                  line.ItemID,
		Quantity:                spec.Quantity,
		Unit:                    spec.Unit,
		QuantityInCanonicalUnit: tons,
		PricePerCanonicalUnit:   spec.PricePerCanonicalUnit,
		Currency:                currency,
		TotalSum:                tons.Mul(spec.PricePerCanonicalUnit),
		CreatedBy:               actorID,
		CreatedAt:               time.Now().UTC(),
	}, nil
}

func (l *Ledger) ensureEditable() error {
	if !l.order.Status.AcceptsAllocations() {
		return shared.NewDomainError(shared.CodeOrderNotEditable,
			fmt.Sprintf("Allocations can only change while the order is locked, order is %s", l.order.Status))
	}
	return nil
}

func (l *Ledger) allocatedExcluding(lineID, excluded uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.allocations {
		if a.OrderLineID == lineID && a.ID != excluded {
			total = total.Add(a.QuantityInCanonicalUnit)
		}
	}
	return total
}

func (l *Ledger) remove(id uuid.UUID) {
	for i, a := range l.allocations {
		if a.ID == id {
			l.allocations = append(l.allocations[:i], l.allocations[i+1:]...)
			return
		}
	}
}
