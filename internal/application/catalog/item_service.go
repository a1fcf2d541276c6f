package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
)

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Unit        string `json:"unit" binding:"required,mass_unit"`
	Category    string `json:"category" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemService handles goods item reference data
type ItemService struct {
	itemRepo catalog.ItemRepository
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo catalog.ItemRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo}
}

// Create creates a new item
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	unit, err := valueobject.ParseMassUnit(req.Unit)
	if err != nil {
		return nil, err
	}
	item, err := catalog.NewItem(req.Name, unit, req.Category, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	response := toItemResponse(*item)
	return &response, nil
}

// GetByID returns one item
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Item not found")
	}
	if err != nil {
		return nil, err
	}
	response := toItemResponse(*item)
	return &response, nil
}

// List returns all items by name
func (s *ItemService) List(ctx context.Context) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toItemResponse(item))
	}
	return result, nil
}

func toItemResponse(i catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Unit:        i.Unit.String(),
		Category:    i.Category,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
	}
}
