package distribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Allocation assigns part of an order line to a supplier at a price per ton.
// Allocations are never edited in place; a change is a delete and a recreate,
// so TotalSum always matches its inputs.
type Allocation struct {
	ID                      uuid.UUID
	OrderID                 uuid.UUID
	OrderLineID             uuid.UUID
	SupplierID              uuid.UUID
	ItemID                  uuid.UUID
	Quantity                decimal.Decimal
	Unit                    valueobject.MassUnit
	QuantityInCanonicalUnit decimal.Decimal
	PricePerCanonicalUnit   decimal.Decimal
	Currency                valueobject.Currency
	TotalSum                decimal.Decimal
	CreatedBy               string
	CreatedAt               time.Time
}

// AllocationSpec is the input for a new allocation
type AllocationSpec struct {
	OrderLineID           uuid.UUID
	SupplierID            uuid.UUID
	Quantity              decimal.Decimal
	Unit                  valueobject.MassUnit
	PricePerCanonicalUnit decimal.Decimal
	Currency              valueobject.Currency
}

// SettlementCurrency returns the allocation currency, treating records
// written before currencies existed as USD.
func (a Allocation) SettlementCurrency() valueobject.Currency {
	if a.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return a.Currency
}
