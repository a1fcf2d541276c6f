package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the record stored in the orders collection
type OrderModel struct {
	ID               uuid.UUID        `json:"id"`
	OrderNumber      string           `json:"orderNumber"`
	CreatedBy        string           `json:"createdBy"`
	Status           string           `json:"status"`
	ContainerTonnage *decimal.Decimal `json:"containerTonnage,omitempty"`
	Version          int              `json:"version,omitempty"`
	CreatedAt        Timestamp        `json:"createdAt"`
	UpdatedAt        Timestamp        `json:"updatedAt"`
}

// OrderLineModel is the record stored in the order_lines collection
type OrderLineModel struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"orderId"`
	ItemID         uuid.UUID       `json:"itemId"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	QuantityInTons decimal.Decimal `json:"quantityInTons"`
	CreatedAt      Timestamp       `json:"createdAt"`
}

// ToDomain assembles an order from its record and line records
func (m *OrderModel) ToDomain(lines []OrderLineModel) (*trade.Order, error) {
	status := trade.OrderStatus(m.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("order %s: unknown status %q", m.ID, m.Status)
	}

	updatedAt := m.UpdatedAt.Time
	if updatedAt.IsZero() {
		updatedAt = m.CreatedAt.Time
	}

	order := &trade.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt.Time,
				UpdatedAt: updatedAt,
			},
			Version: m.Version,
		},
		OrderNumber:      m.OrderNumber,
		CreatedBy:        m.CreatedBy,
		Status:           status,
		ContainerTonnage: m.ContainerTonnage,
		Lines:            make([]trade.OrderLine, 0, len(lines)),
	}

	for i := range lines {
		line, err := lines[i].ToDomain()
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, *line)
	}
	return order, nil
}

// FromDomain populates the record from an order, leaving lines to OrderLineModel
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.ID = o.ID
	m.OrderNumber = o.OrderNumber
	m.CreatedBy = o.CreatedBy
	m.Status = string(o.Status)
	m.ContainerTonnage = o.ContainerTonnage
	m.Version = o.Version
	m.CreatedAt = NewTimestamp(o.CreatedAt)
	m.UpdatedAt = NewTimestamp(o.UpdatedAt)
}

// ToDomain converts the record to an order line
func (m *OrderLineModel) ToDomain() (*trade.OrderLine, error) {
	unit, err := valueobject.ParseMassUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("order line %s: %w", m.ID, err)
	}
	return &trade.OrderLine{
		ID:                      m.ID,
		OrderID:                 m.OrderID,
		ItemID:                  m.ItemID,
		Quantity:                m.Quantity,
		Unit:                    unit,
		QuantityInCanonicalUnit: m.QuantityInTons,
		CreatedAt:               m.CreatedAt.Time,
	}, nil
}

// OrderLineModelFromDomain builds a line record
func OrderLineModelFromDomain(l trade.OrderLine) OrderLineModel {
	return OrderLineModel{
		ID:             l.ID,
		OrderID:        l.OrderID,
		ItemID:         l.ItemID,
		Quantity:       l.Quantity,
		Unit:           string(l.Unit),
		QuantityInTons: l.QuantityInCanonicalUnit,
		CreatedAt:      NewTimestamp(l.CreatedAt),
	}
}
