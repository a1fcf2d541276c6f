package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentModel is the record stored in the payments collection. Legacy
// records carry only AllocationID; current records carry SupplierID,
// OrderID, and Currency.
type PaymentModel struct {
	ID           uuid.UUID       `json:"id"`
	AllocationID *uuid.UUID      `json:"allocationId,omitempty"`
	SupplierID   *uuid.UUID      `json:"supplierId,omitempty"`
	OrderID      *uuid.UUID      `json:"orderId,omitempty"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Date         Timestamp       `json:"date"`
	Comment      string          `json:"comment,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    Timestamp       `json:"createdAt"`
}

// IsLegacy reports whether the record addresses a single allocation
func (m *PaymentModel) IsLegacy() bool {
	return m.AllocationID != nil
}

// AddressesOrder reports whether the record is a current-mode payment for orderID
func (m *PaymentModel) AddressesOrder(orderID uuid.UUID) bool {
	return m.AllocationID == nil && m.SupplierID != nil && m.OrderID != nil && *m.OrderID == orderID
}

// ToDomain converts the record to a payment operation. A legacy record
// without a currency keeps it empty; the settlement ledger fills it from
// the allocation.
func (m *PaymentModel) ToDomain() (*finance.PaymentOperation, error) {
	p := &finance.PaymentOperation{
		ID:        m.ID,
		Type:      finance.PaymentType(m.Type),
		Amount:    m.Amount,
		Currency:  valueobject.Currency(m.Currency),
		Date:      m.Date.Time,
		Comment:   m.Comment,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.Time,
	}
	if m.OrderID != nil {
		p.OrderID = *m.OrderID
	}
	if p.Date.IsZero() {
		p.Date = p.CreatedAt
	}

	switch {
	case m.AllocationID != nil:
		p.Target = finance.LegacyAllocationTarget(*m.AllocationID)
	case m.SupplierID != nil && m.OrderID != nil:
		currency, err := valueobject.ParseCurrency(m.Currency)
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", m.ID, err)
		}
		p.Currency = currency
		p.Target = finance.SupplierOrderTarget(*m.SupplierID, *m.OrderID, currency)
	default:
		return nil, fmt.Errorf("payment %s has no target", m.ID)
	}
	return p, nil
}

// PaymentModelFromDomain builds a payment record
func PaymentModelFromDomain(p finance.PaymentOperation) PaymentModel {
	m := PaymentModel{
		ID:        p.ID,
		Type:      string(p.Type),
		Amount:    p.Amount,
		Currency:  string(p.Currency),
		Date:      NewTimestamp(p.Date),
		Comment:   p.Comment,
		CreatedBy: p.CreatedBy,
		CreatedAt: NewTimestamp(p.CreatedAt),
	}
	orderID := p.OrderID
	m.OrderID = &orderID

	if p.Target.IsLegacy() {
		allocationID := p.Target.AllocationID
		m.AllocationID = &allocationID
	} else {
		supplierID := p.Target.SupplierID
		m.SupplierID = &supplierID
	}
	return m
}
