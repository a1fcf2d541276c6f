package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentType distinguishes advances from final settlements
type PaymentType string

const (
	PaymentTypePrepayment PaymentType = "PREPAYMENT"
	PaymentTypePayoff     PaymentType = "PAYOFF"
)

// IsValid checks if the payment type is known
func (t PaymentType) IsValid() bool {
	return t == PaymentTypePrepayment || t == PaymentTypePayoff
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// TargetKind tags which addressing mode a payment uses
type TargetKind string

const (
	// TargetLegacyAllocation addresses a single allocation
	TargetLegacyAllocation TargetKind = "allocation"
	// TargetSupplierOrder addresses a supplier's exposure on an order in one currency
	TargetSupplierOrder TargetKind = "supplier_order"
)

// PaymentTarget is what a payment settles. Exactly one of the two shapes is
// populated, as selected by Kind.
type PaymentTarget struct {
	Kind         TargetKind
	AllocationID uuid.UUID
	SupplierID   uuid.UUID
	OrderID      uuid.UUID
	Currency     valueobject.Currency
}

// LegacyAllocationTarget addresses one allocation directly
func LegacyAllocationTarget(allocationID uuid.UUID) PaymentTarget {
	return PaymentTarget{Kind: TargetLegacyAllocation, AllocationID: allocationID}
}

// SupplierOrderTarget addresses a supplier's whole exposure on an order in one currency
func SupplierOrderTarget(supplierID, orderID uuid.UUID, currency valueobject.Currency) PaymentTarget {
	return PaymentTarget{Kind: TargetSupplierOrder, SupplierID: supplierID, OrderID: orderID, Currency: currency}
}

// IsLegacy reports whether the target is a single allocation
func (t PaymentTarget) IsLegacy() bool {
	return t.Kind == TargetLegacyAllocation
}

// PaymentOperation is an append-only cash movement. It is never edited or deleted.
type PaymentOperation struct {
	ID       uuid.UUID
	Target   PaymentTarget
	OrderID  uuid.UUID
	Type     PaymentType
	Amount   decimal.Decimal
	Currency valueobject.Currency
	Date     time.Time
	Comment  string

	CreatedBy string
	CreatedAt time.Time
}

// PaymentRequest is the input to RecordPayment. A nil Amount on a payoff
// pays the whole remaining balance; Date defaults to now.
type PaymentRequest struct {
	Target   PaymentTarget
	Type     PaymentType
	Amount   *decimal.Decimal
	Currency valueobject.Currency
	Date     *time.Time
	Comment  string
}
