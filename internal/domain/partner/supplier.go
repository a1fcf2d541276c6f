package partner

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
)

// Supplier is reference data: a party goods are allocated to and paid to
type Supplier struct {
	ID        uuid.UUID
	Name      string
	Contacts  string
	Notes     string
	CreatedAt time.Time
}

// NewSupplier creates a supplier
func NewSupplier(name, contacts, notes string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return &Supplier{
		ID:        uuid.New(),
		Name:      name,
		Contacts:  strings.TrimSpace(contacts),
		Notes:     strings.TrimSpace(notes),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SupplierRepository persists suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindAll(ctx context.Context) ([]Supplier, error)
	Save(ctx context.Context, supplier *Supplier) error
}
