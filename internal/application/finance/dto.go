package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/infrastructure/format"
	"github.com/shopspring/decimal"
)

// ==================== Payment DTOs ====================

// RecordPaymentRequest pays a supplier's exposure on an order in one currency
type RecordPaymentRequest struct {
	SupplierID uuid.UUID        `json:"supplier_id" binding:"required"`
	Currency   string           `json:"currency" binding:"omitempty,currency"`
	Type       string           `json:"type" binding:"required,oneof=PREPAYMENT PAYOFF"`
	Amount     *decimal.Decimal `json:"amount"`
	Date       *time.Time       `json:"date"`
	Comment    string           `json:"comment" binding:"max=500"`
}

// RecordLegacyPaymentRequest pays a single allocation
type RecordLegacyPaymentRequest struct {
	Currency string           `json:"currency" binding:"omitempty,currency"`
	Type     string           `json:"type" binding:"required,oneof=PREPAYMENT PAYOFF"`
	Amount   *decimal.Decimal `json:"amount"`
	Date     *time.Time       `json:"date"`
	Comment  string           `json:"comment" binding:"max=500"`
}

// PaymentResponse represents a payment operation in API responses
type PaymentResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	TargetKind   string          `json:"target_kind"`
	AllocationID *uuid.UUID      `json:"allocation_id,omitempty"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	AmountLabel  string          `json:"amount_label"`
	Currency     string          `json:"currency"`
	Date         time.Time       `json:"date"`
	Comment      string          `json:"comment,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	OrderStatus  string          `json:"order_status,omitempty"`
}

// SupplierSettlementResponse is the position of one supplier in one currency
type SupplierSettlementResponse struct {
	SupplierID     uuid.UUID       `json:"supplier_id"`
	Currency       string          `json:"currency"`
	Exposure       decimal.Decimal `json:"exposure"`
	Paid           decimal.Decimal `json:"paid"`
	Remaining      decimal.Decimal `json:"remaining"`
	Status         string          `json:"status"`
	Allocations    int             `json:"allocations"`
	RemainingLabel string          `json:"remaining_label"`
}

// CurrencyTotalResponse sums all suppliers of one currency
type CurrencyTotalResponse struct {
	Currency       string          `json:"currency"`
	Exposure       decimal.Decimal `json:"exposure"`
	Paid           decimal.Decimal `json:"paid"`
	Remaining      decimal.Decimal `json:"remaining"`
	ExposureLabel  string          `json:"exposure_label"`
	PaidLabel      string          `json:"paid_label"`
	RemainingLabel string          `json:"remaining_label"`
}

// SettlementSummaryResponse is the settlement view of an order
type SettlementSummaryResponse struct {
	OrderID      uuid.UUID                    `json:"order_id"`
	OrderNumber  string                       `json:"order_number"`
	Status       string                       `json:"status"`
	FullySettled bool                         `json:"fully_settled"`
	Suppliers    []SupplierSettlementResponse `json:"suppliers"`
	Totals       []CurrencyTotalResponse      `json:"totals"`
}

// ToPaymentResponse converts a payment operation to a response
func ToPaymentResponse(p finance.PaymentOperation) PaymentResponse {
	r := PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		TargetKind:  string(p.Target.Kind),
		Type:        p.Type.String(),
		Amount:      p.Amount,
		AmountLabel: format.Money(p.Amount, p.Currency),
		Currency:    p.Currency.String(),
		Date:        p.Date,
		Comment:     p.Comment,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
	}
	if p.Target.IsLegacy() {
		id := p.Target.AllocationID
		r.AllocationID = &id
	} else {
		id := p.Target.SupplierID
		r.SupplierID = &id
	}
	return r
}

// ToSettlementSummaryResponse converts a settlement ledger to its summary
func ToSettlementSummaryResponse(l *finance.Ledger) SettlementSummaryResponse {
	groups := l.Groups()
	suppliers := make([]SupplierSettlementResponse, 0, len(groups))
	for _, g := range groups {
		suppliers = append(suppliers, SupplierSettlementResponse{
			SupplierID:     g.SupplierID,
			Currency:       g.Currency.String(),
			Exposure:       g.Exposure,
			Paid:           g.Paid,
			Remaining:      g.Remaining,
			Status:         string(g.Status),
			Allocations:    g.Allocations,
			RemainingLabel: format.Money(g.Remaining, g.Currency),
		})
	}

	totals := make([]CurrencyTotalResponse, 0)
	for _, t := range l.Totals() {
		totals = append(totals, CurrencyTotalResponse{
			Currency:       t.Currency.String(),
			Exposure:       t.Exposure,
			Paid:           t.Paid,
			Remaining:      t.Remaining,
			ExposureLabel:  format.Money(t.Exposure, t.Currency),
			PaidLabel:      format.Money(t.Paid, t.Currency),
			RemainingLabel: format.Money(t.Remaining, t.Currency),
		})
	}

	order := l.Order()
	return SettlementSummaryResponse{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status.String(),
		FullySettled: l.IsFullySettled(),
		Suppliers:    suppliers,
		Totals:       totals,
	}
}
