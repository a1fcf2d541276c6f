package models

import (
	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/partner"
)

// SupplierModel is the record stored in the suppliers collection
type SupplierModel struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Contacts  string    `json:"contacts,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// ToDomain converts the record to a supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		ID:        m.ID,
		Name:      m.Name,
		Contacts:  m.Contacts,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.Time,
	}
}

// SupplierModelFromDomain builds a supplier record
func SupplierModelFromDomain(s *partner.Supplier) SupplierModel {
	return SupplierModel{
		ID:        s.ID,
		Name:      s.Name,
		Contacts:  s.Contacts,
		Notes:     s.Notes,
		CreatedAt: NewTimestamp(s.CreatedAt),
	}
}
