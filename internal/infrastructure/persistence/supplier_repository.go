package persistence

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/partner"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// SupplierRepository implements partner.SupplierRepository over the suppliers collection
type SupplierRepository struct {
	suppliers collection[models.SupplierModel]
}

// NewSupplierRepository creates a supplier repository on s
func NewSupplierRepository(s store.CollectionStore) *SupplierRepository {
	return &SupplierRepository{
		suppliers: newCollection[models.SupplierModel](s, store.KeySuppliers),
	}
}

// FindByID finds a supplier by its ID
func (r *SupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	records, err := r.suppliers.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return records[i].ToDomain(), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindAll lists suppliers by name
func (r *SupplierRepository) FindAll(ctx context.Context) ([]partner.Supplier, error) {
	records, err := r.suppliers.all(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]partner.Supplier, 0, len(records))
	for i := range records {
		result = append(result, *records[i].ToDomain())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// Save creates or replaces a supplier
func (r *SupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return r.suppliers.update(ctx, func(records []models.SupplierModel) ([]models.SupplierModel, error) {
		m := models.SupplierModelFromDomain(supplier)
		for i := range records {
			if records[i].ID == supplier.ID {
				records[i] = m
				return records, nil
			}
		}
		return append(records, m), nil
	})
}

var _ partner.SupplierRepository = (*SupplierRepository)(nil)
