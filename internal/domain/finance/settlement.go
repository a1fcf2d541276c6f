package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SettlementStatus describes how much of a group has been paid
type SettlementStatus string

const (
	SettlementUnpaid  SettlementStatus = "UNPAID"
	SettlementPartial SettlementStatus = "PARTIAL"
	SettlementPaid    SettlementStatus = "PAID"
)

// GroupKey identifies one supplier's exposure in one currency
type GroupKey struct {
	SupplierID uuid.UUID
	Currency   valueobject.Currency
}

// GroupSummary is the settlement position of one supplier/currency group
type GroupSummary struct {
	GroupKey
	Exposure    decimal.Decimal
	Paid        decimal.Decimal
	Remaining   decimal.Decimal
	Status      SettlementStatus
	Allocations int
}

// CurrencyTotal sums every group of one currency. Currencies are never combined.
type CurrencyTotal struct {
	Currency  valueobject.Currency
	Exposure  decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
}

// Ledger is the settlement view of one order: what each supplier is owed per
// currency and what has been paid, reconciling both payment addressing modes.
type Ledger struct {
	order       *trade.Order
	allocations map[uuid.UUID]distribution.Allocation
	ordered     []distribution.Allocation
	payments    []PaymentOperation
	baseline    []uuid.UUID
	events      []shared.DomainEvent
}

// NewLedger builds the settlement ledger of order. payments may include
// legacy payments against any allocation of the order and current-mode
// payments addressed to the order.
func NewLedger(order *trade.Order, allocations []distribution.Allocation, payments []PaymentOperation) *Ledger {
	byID := make(map[uuid.UUID]distribution.Allocation, len(allocations))
	for _, a := range allocations {
		byID[a.ID] = a
	}
	baseline := make([]uuid.UUID, 0, len(payments))
	normalized := make([]PaymentOperation, 0, len(payments))
	for _, p := range payments {
		baseline = append(baseline, p.ID)
		// legacy payments were stored without order or currency
		if p.Target.IsLegacy() {
			if a, ok := byID[p.Target.AllocationID]; ok && p.Currency == "" {
				p.Currency = a.SettlementCurrency()
			}
			if p.OrderID == uuid.Nil {
				p.OrderID = order.ID
			}
		}
		normalized = append(normalized, p)
	}
	return &Ledger{
		order:       order,
		allocations: byID,
		ordered:     append([]distribution.Allocation(nil), allocations...),
		payments:    normalized,
		baseline:    baseline,
	}
}

// Order returns the order the ledger belongs to
func (l *Ledger) Order() *trade.Order {
	return l.order
}

// Payments returns the payments known to the ledger in recording order
func (l *Ledger) Payments() []PaymentOperation {
	return l.payments
}

// AllocationIDs returns the IDs of the order's allocations in creation order
func (l *Ledger) AllocationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l.ordered))
	for _, a := range l.ordered {
		ids = append(ids, a.ID)
	}
	return ids
}

// Baseline returns the payment IDs present when the ledger was loaded
func (l *Ledger) Baseline() []uuid.UUID {
	return l.baseline
}

// Events returns the domain events raised since the ledger was loaded
func (l *Ledger) Events() []shared.DomainEvent {
	return l.events
}

// Exposure is the sum of allocation totals of a group
func (l *Ledger) Exposure(key GroupKey) decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.ordered {
		if l.inGroup(a, key) {
			total = total.Add(a.TotalSum)
		}
	}
	return total
}

// PaidSoFar merges both addressing modes into one figure for a group:
// current-mode payments to supplier+order+currency plus legacy payments
// against every allocation of the group.
func (l *Ledger) PaidSoFar(key GroupKey) decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.payments {
		if l.paysGroup(p, key) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// RemainingForSupplier is exposure minus paid-so-far for a group
func (l *Ledger) RemainingForSupplier(supplierID uuid.UUID, currency valueobject.Currency) decimal.Decimal {
	key := GroupKey{SupplierID: supplierID, Currency: currency}
	return l.Exposure(key).Sub(l.PaidSoFar(key))
}

// IsFullySettled is true when every group with nonzero exposure has nothing left to pay
func (l *Ledger) IsFullySettled() bool {
	for _, g := range l.Groups() {
		if !g.Exposure.IsZero() && !g.Remaining.IsZero() {
			return false
		}
	}
	return true
}

// Groups summarises every supplier/currency group, ordered by first allocation
func (l *Ledger) Groups() []GroupSummary {
	keys := make([]GroupKey, 0)
	counts := make(map[GroupKey]int)
	for _, a := range l.ordered {
		key := GroupKey{SupplierID: a.SupplierID, Currency: a.SettlementCurrency()}
		if counts[key] == 0 {
			keys = append(keys, key)
		}
		counts[key]++
	}

	summaries := make([]GroupSummary, 0, len(keys))
	for _, key := range keys {
		exposure := l.Exposure(key)
		paid := l.PaidSoFar(key)
		remaining := exposure.Sub(paid)
		summaries = append(summaries, GroupSummary{
			GroupKey:    key,
			Exposure:    exposure,
			Paid:        paid,
			Remaining:   remaining,
			Status:      settlementStatus(paid, remaining),
			Allocations: counts[key],
		})
	}
	return summaries
}

// Totals sums groups per currency, in valueobject.Currencies order
func (l *Ledger) Totals() []CurrencyTotal {
	byCurrency := make(map[valueobject.Currency]*CurrencyTotal)
	for _, g := range l.Groups() {
		t, ok := byCurrency[g.Currency]
		if !ok {
			t = &CurrencyTotal{Currency: g.Currency, Exposure: decimal.Zero, Paid: decimal.Zero, Remaining: decimal.Zero}
			byCurrency[g.Currency] = t
		}
		t.Exposure = t.Exposure.Add(g.Exposure)
		t.Paid = t.Paid.Add(g.Paid)
		t.Remaining = t.Remaining.Add(g.Remaining)
	}

	totals := make([]CurrencyTotal, 0, len(byCurrency))
	for _, c := range valueobject.Currencies() {
		if t, ok := byCurrency[c]; ok {
			totals = append(totals, *t)
		}
	}
	return totals
}

// History returns the order's payments, newest first
func (l *Ledger) History() []PaymentOperation {
	history := append([]PaymentOperation(nil), l.payments...)
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Date.Equal(history[j].Date) {
			return history[i].CreatedAt.After(history[j].CreatedAt)
		}
		return history[i].Date.After(history[j].Date)
	})
	return history
}

// RecordPayment appends a payment after checking it against the target's
// remaining balance. When the payment settles the last open group of a
// distributed order, the order moves to Financial.
func (l *Ledger) RecordPayment(req PaymentRequest, actorID string) (*PaymentOperation, error) {
	if !l.acceptsPayments() {
		return nil, shared.NewDomainError(shared.CodeOrderNotEditable,
			fmt.Sprintf("Payments can only be recorded once the order is distributed, order is %s", l.order.Status))
	}
	if !req.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment type: "+string(req.Type))
	}

	target, currency, err := l.resolveTarget(req)
	if err != nil {
		return nil, err
	}
	remaining := l.remainingForTarget(target, currency)

	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
	} else if req.Type != PaymentTypePayoff {
		return nil, shared.ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if amount.GreaterThan(remaining) {
		return nil, shared.NewDomainError(shared.CodeAmountExceedsRemaining,
			fmt.Sprintf("Payment of %s %s exceeds the remaining %s %s", amount, currency, remaining, currency))
	}

	now := time.Now().UTC()
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}

	payment := PaymentOperation{
		ID:        uuid.New(),
		Target:    target,
		OrderID:   l.order.ID,
		Type:      req.Type,
		Amount:    amount,
		Currency:  currency,
		Date:      date,
		Comment:   req.Comment,
		CreatedBy: actorID,
		CreatedAt: now,
	}
	l.payments = append(l.payments, payment)
	l.events = append(l.events, NewPaymentRecordedEvent(payment, actorID))

	if _, err := l.Reconcile(actorID); err != nil {
		return nil, err
	}

	return &payment, nil
}

// Reconcile moves a distributed order to Financial when nothing is left to
// pay, and reports whether the status changed. An order with no exposure is
// settled as soon as it is distributed.
func (l *Ledger) Reconcile(actorID string) (bool, error) {
	if l.order.Status != trade.OrderStatusDistributed || !l.IsFullySettled() {
		return false, nil
	}
	if err := l.order.MarkFinancial(actorID); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) acceptsPayments() bool {
	switch l.order.Status {
	case trade.OrderStatusDistributed, trade.OrderStatusFinancial, trade.OrderStatusCompleted:
		return true
	}
	return false
}

// resolveTarget validates the target against the order and fixes the currency
func (l *Ledger) resolveTarget(req PaymentRequest) (PaymentTarget, valueobject.Currency, error) {
	target := req.Target
	switch target.Kind {
	case TargetLegacyAllocation:
		a, ok := l.allocations[target.AllocationID]
		if !ok {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeNotFound, "Allocation not found on this order")
		}
		currency := a.SettlementCurrency()
		if req.Currency != "" && req.Currency != currency {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeCurrencyMismatch,
				fmt.Sprintf("Allocation is settled in %s, not %s", currency, req.Currency))
		}
		return LegacyAllocationTarget(a.ID), currency, nil

	case TargetSupplierOrder:
		if target.OrderID != l.order.ID {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeInvalidInput, "Payment target belongs to another order")
		}
		if target.SupplierID == uuid.Nil {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeInvalidInput, "Supplier ID cannot be empty")
		}
		currency := target.Currency
		if currency == "" {
			currency = req.Currency
		}
		if currency == "" {
			currency = valueobject.DefaultCurrency
		}
		if !currency.IsValid() {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeInvalidCurrency, "unsupported currency: "+string(currency))
		}
		if req.Currency != "" && req.Currency != currency {
			return PaymentTarget{}, "", shared.NewDomainError(shared.CodeCurrencyMismatch,
				fmt.Sprintf("Target is settled in %s, not %s", currency, req.Currency))
		}
		return SupplierOrderTarget(target.SupplierID, l.order.ID, currency), currency, nil
	}
	return PaymentTarget{}, "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment target")
}

// remainingForTarget is the group balance for current-mode targets. A legacy
// target is also capped by what is left on the allocation itself.
func (l *Ledger) remainingForTarget(target PaymentTarget, currency valueobject.Currency) decimal.Decimal {
	if target.Kind == TargetSupplierOrder {
		return l.RemainingForSupplier(target.SupplierID, currency)
	}

	a := l.allocations[target.AllocationID]
	groupRemaining := l.RemainingForSupplier(a.SupplierID, currency)
	paidOnAllocation := decimal.Zero
	for _, p := range l.payments {
		if p.Target.IsLegacy() && p.Target.AllocationID == a.ID {
			paidOnAllocation = paidOnAllocation.Add(p.Amount)
		}
	}
	return decimal.Min(a.TotalSum.Sub(paidOnAllocation), groupRemaining)
}

func (l *Ledger) inGroup(a distribution.Allocation, key GroupKey) bool {
	return a.SupplierID == key.SupplierID && a.SettlementCurrency() == key.Currency
}

func (l *Ledger) paysGroup(p PaymentOperation, key GroupKey) bool {
	switch p.Target.Kind {
	case TargetSupplierOrder:
		return p.Target.OrderID == l.order.ID &&
			p.Target.SupplierID == key.SupplierID &&
			p.Target.Currency == key.Currency
	case TargetLegacyAllocation:
		a, ok := l.allocations[p.Target.AllocationID]
		return ok && l.inGroup(a, key)
	}
	return false
}

func settlementStatus(paid, remaining decimal.Decimal) SettlementStatus {
	switch {
	case remaining.IsZero() || remaining.IsNegative():
		return SettlementPaid
	case paid.IsPositive():
		return SettlementPartial
	default:
		return SettlementUnpaid
	}
}
