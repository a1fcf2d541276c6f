package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
)

// Item is a goods position that order lines request
type Item struct {
	ID          uuid.UUID
	Name        string
	Unit        valueobject.MassUnit
	Category    string
	Description string
	CreatedAt   time.Time
}

// NewItem creates an item. Items are counted in tons or kilograms.
func NewItem(name string, unit valueobject.MassUnit, category, description string) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if unit != valueobject.UnitTon && unit != valueobject.UnitKilogram {
		return nil, shared.NewDomainError(shared.CodeInvalidUnit, "Item unit must be t or kg")
	}
	return &Item{
		ID:          uuid.New(),
		Name:        name,
		Unit:        unit,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ItemRepository persists items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindAll(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, item *Item) error
}
