package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Order DTOs ====================

// LineInput is one requested line
type LineInput struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Unit     string          `json:"unit" binding:"required,mass_unit"`
}

// CreateOrderRequest represents a request to create an order, optionally with its cart
type CreateOrderRequest struct {
	ContainerTonnage *decimal.Decimal `json:"container_tonnage"`
	Lines            []LineInput      `json:"lines" binding:"dive"`
}

// AddLineRequest represents a request to add a line to a draft order
type AddLineRequest = LineInput

// OrderLineResponse represents an order line in API responses
type OrderLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	QuantityInTons decimal.Decimal `json:"quantity_in_tons"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	Status           string              `json:"status"`
	CreatedBy        string              `json:"created_by"`
	ContainerTonnage *decimal.Decimal    `json:"container_tonnage,omitempty"`
	TotalTons        decimal.Decimal     `json:"total_tons"`
	Lines            []OrderLineResponse `json:"lines"`
	Version          int                 `json:"version"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderListItemResponse is the compact order shape used in listings
type OrderListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	CreatedBy   string          `json:"created_by"`
	LinesCount  int             `json:"lines_count"`
	TotalTons   decimal.Decimal `json:"total_tons"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderListFilter narrows order listings
type OrderListFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=draft locked distributed financial completed"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *trade.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:             line.ID,
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			Unit:           line.Unit.String(),
			QuantityInTons: line.QuantityInCanonicalUnit,
			CreatedAt:      line.CreatedAt,
		})
	}
	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Status:           o.Status.String(),
		CreatedBy:        o.CreatedBy,
		ContainerTonnage: o.ContainerTonnage,
		TotalTons:        o.TotalRequested(),
		Lines:            lines,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToOrderListItemResponse converts a domain order to its listing shape
func ToOrderListItemResponse(o *trade.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status.String(),
		CreatedBy:   o.CreatedBy,
		LinesCount:  len(o.Lines),
		TotalTons:   o.TotalRequested(),
		CreatedAt:   o.CreatedAt,
	}
}
