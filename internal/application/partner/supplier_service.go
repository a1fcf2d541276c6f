package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/partner"
	"github.com/logistics/backend/internal/domain/shared"
)

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Contacts string `json:"contacts" binding:"max=500"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Contacts  string    `json:"contacts,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SupplierService handles supplier reference data
type SupplierService struct {
	supplierRepo partner.SupplierRepository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := partner.NewSupplier(req.Name, req.Contacts, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	response := toSupplierResponse(*supplier)
	return &response, nil
}

// GetByID returns one supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Supplier not found")
	}
	if err != nil {
		return nil, err
	}
	response := toSupplierResponse(*supplier)
	return &response, nil
}

// List returns all suppliers by name
func (s *SupplierService) List(ctx context.Context) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]SupplierResponse, 0, len(suppliers))
	for _, supplier := range suppliers {
		result = append(result, toSupplierResponse(supplier))
	}
	return result, nil
}

func toSupplierResponse(s partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Contacts:  s.Contacts,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
	}
}
