package persistence

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// ItemRepository implements catalog.ItemRepository over the items collection
type ItemRepository struct {
	items collection[models.ItemModel]
}

// NewItemRepository creates an item repository on s
func NewItemRepository(s store.CollectionStore) *ItemRepository {
	return &ItemRepository{
		items: newCollection[models.ItemModel](s, store.KeyItems),
	}
}

// FindByID finds an item by its ID
func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	records, err := r.items.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return records[i].ToDomain()
		}
	}
	return nil, shared.ErrNotFound
}

// FindAll lists items by name
func (r *ItemRepository) FindAll(ctx context.Context) ([]catalog.Item, error) {
	records, err := r.items.all(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]catalog.Item, 0, len(records))
	for i := range records {
		item, err := records[i].ToDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// Save creates or replaces an item
func (r *ItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	return r.items.update(ctx, func(records []models.ItemModel) ([]models.ItemModel, error) {
		m := models.ItemModelFromDomain(item)
		for i := range records {
			if records[i].ID == item.ID {
				records[i] = m
				return records, nil
			}
		}
		return append(records, m), nil
	})
}

var _ catalog.ItemRepository = (*ItemRepository)(nil)
