package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
)

// ItemModel is the record stored in the items collection
type ItemModel struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// ToDomain converts the record to an item
func (m *ItemModel) ToDomain() (*catalog.Item, error) {
	unit, err := valueobject.ParseMassUnit(m.Unit)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", m.ID, err)
	}
	return &catalog.Item{
		ID:          m.ID,
		Name:        m.Name,
		Unit:        unit,
		Category:    m.Category,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.Time,
	}, nil
}

// ItemModelFromDomain builds an item record
func ItemModelFromDomain(i *catalog.Item) ItemModel {
	return ItemModel{
		ID:          i.ID,
		Name:        i.Name,
		Unit:        string(i.Unit),
		Category:    i.Category,
		Description: i.Description,
		CreatedAt:   NewTimestamp(i.CreatedAt),
	}
}
