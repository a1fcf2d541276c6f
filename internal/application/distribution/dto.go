package distribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/shopspring/decimal"
)

// AllocateRequest represents a request to assign part of a line to a supplier
type AllocateRequest struct {
	OrderLineID uuid.UUID       `json:"order_line_id" binding:"required"`
	SupplierID  uuid.UUID       `json:"supplier_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Unit        string          `json:"unit" binding:"required,mass_unit"`
	PricePerTon decimal.Decimal `json:"price_per_ton" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
}

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	OrderLineID    uuid.UUID       `json:"order_line_id"`
	SupplierID     uuid.UUID       `json:"supplier_id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	QuantityInTons decimal.Decimal `json:"quantity_in_tons"`
	PricePerTon    decimal.Decimal `json:"price_per_ton"`
	Currency       string          `json:"currency"`
	TotalSum       decimal.Decimal `json:"total_sum"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LineDistributionResponse is the allocation state of one order line
type LineDistributionResponse struct {
	OrderLineID     uuid.UUID            `json:"order_line_id"`
	ItemID          uuid.UUID            `json:"item_id"`
	RequestedTons   decimal.Decimal      `json:"requested_tons"`
	AllocatedTons   decimal.Decimal      `json:"allocated_tons"`
	RemainingTons   decimal.Decimal      `json:"remaining_tons"`
	Containers      decimal.Decimal      `json:"containers"`
	FullyAllocated  bool                 `json:"fully_allocated"`
	Allocations     []AllocationResponse `json:"allocations"`
	RequestedLabel  string               `json:"requested_label"`
	RemainingLabel  string               `json:"remaining_label"`
	ContainersLabel string               `json:"containers_label"`
}

// DistributionResponse is the allocation state of a whole order
type DistributionResponse struct {
	OrderID        uuid.UUID                  `json:"order_id"`
	OrderNumber    string                     `json:"order_number"`
	Status         string                     `json:"status"`
	FullyAllocated bool                       `json:"fully_allocated"`
	Lines          []LineDistributionResponse `json:"lines"`
}

// ToAllocationResponse converts a domain allocation to a response
func ToAllocationResponse(a distribution.Allocation) AllocationResponse {
	return AllocationResponse{
		ID:             a.ID,
		OrderID:        a.OrderID,
		OrderLineID:    a.OrderLineID,
		SupplierID:     a.SupplierID,
		ItemID:         a.ItemID,
		Quantity:       a.Quantity,
		Unit:           a.Unit.String(),
		QuantityInTons: a.QuantityInCanonicalUnit,
		PricePerTon:    a.PricePerCanonicalUnit,
		Currency:       a.SettlementCurrency().String(),
		TotalSum:       a.TotalSum,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
	}
}
