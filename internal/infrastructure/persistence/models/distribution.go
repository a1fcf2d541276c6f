package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationModel is the record stored in the allocations collection.
// Currency is absent on records written before currencies existed.
type AllocationModel struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"orderId"`
	OrderLineID    uuid.UUID       `json:"orderLineId"`
	SupplierID     uuid.UUID       `json:"supplierId"`
	ItemID         uuid.UUID       `json:"itemId"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	QuantityInTons decimal.Decimal `json:"quantityInTons"`
	PricePerTon    decimal.Decimal `json:"pricePerTon"`
	Currency       string          `json:"currency,omitempty"`
	TotalSum       decimal.Decimal `json:"totalSum"`
	CreatedBy      string          `json:"createdBy,omitempty"`
	CreatedAt      Timestamp       `json:"createdAt"`
}

// ToDomain converts the record to an allocation
func (m *AllocationModel) ToDomain() (*distribution.Allocation, error) {
	unit, err := valueobject.ParseMassUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", m.ID, err)
	}
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", m.ID, err)
	}
	return &distribution.Allocation{
		ID:                      m.ID,
		OrderID:                 m.OrderID,
		OrderLineID:             m.OrderLineID,
		SupplierID:              m.SupplierID,
		ItemID:                  m.ItemID,
		Quantity:                m.Quantity,
		Unit:                    unit,
		QuantityInCanonicalUnit: m.QuantityInTons,
		PricePerCanonicalUnit:   m.PricePerTon,
		Currency:                currency,
		TotalSum:                m.TotalSum,
		CreatedBy:               m.CreatedBy,
		CreatedAt:               m.CreatedAt.Time,
	}, nil
}

// AllocationModelFromDomain builds an allocation record
func AllocationModelFromDomain(a distribution.Allocation) AllocationModel {
	return AllocationModel{
		ID:             a.ID,
		OrderID:        a.OrderID,
		OrderLineID:    a.OrderLineID,
		SupplierID:     a.SupplierID,
		ItemID:         a.ItemID,
		Quantity:       a.Quantity,
		Unit:           string(a.Unit),
		QuantityInTons: a.QuantityInCanonicalUnit,
		PricePerTon:    a.PricePerCanonicalUnit,
		Currency:       string(a.SettlementCurrency()),
		TotalSum:       a.TotalSum,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      NewTimestamp(a.CreatedAt),
	}
}
