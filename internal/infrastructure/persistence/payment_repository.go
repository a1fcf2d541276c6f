package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// PaymentRepository implements finance.PaymentRepository over the payments
// collection. Payments are only ever appended.
type PaymentRepository struct {
	payments collection[models.PaymentModel]
}

// NewPaymentRepository creates a payment repository on s
func NewPaymentRepository(s store.CollectionStore) *PaymentRepository {
	return &PaymentRepository{
		payments: newCollection[models.PaymentModel](s, store.KeyPayments),
	}
}

// FindForOrder returns current-mode payments addressed to orderID and legacy
// payments against any of allocationIDs, in recording order
func (r *PaymentRepository) FindForOrder(ctx context.Context, orderID uuid.UUID, allocationIDs []uuid.UUID) ([]finance.PaymentOperation, error) {
	records, err := r.payments.all(ctx)
	if err != nil {
		return nil, err
	}

	allocations := idSet(allocationIDs)
	result := make([]finance.PaymentOperation, 0)
	for i := range records {
		if !belongsToOrder(&records[i], orderID, allocations) {
			continue
		}
		p, err := records[i].ToDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, nil
}

// SaveLedger appends the payments recorded on the ledger since it was loaded
func (r *PaymentRepository) SaveLedger(ctx context.Context, ledger *finance.Ledger) error {
	orderID := ledger.Order().ID
	allocations := idSet(ledger.AllocationIDs())
	baseline := idSet(ledger.Baseline())

	return r.payments.update(ctx, func(records []models.PaymentModel) ([]models.PaymentModel, error) {
		stored := 0
		for i := range records {
			if !belongsToOrder(&records[i], orderID, allocations) {
				continue
			}
			if _, ok := baseline[records[i].ID]; !ok {
				return nil, shared.ErrConcurrencyConflict
			}
			stored++
		}
		if stored != len(baseline) {
			return nil, shared.ErrConcurrencyConflict
		}

		for _, p := range ledger.Payments() {
			if _, ok := baseline[p.ID]; !ok {
				records = append(records, models.PaymentModelFromDomain(p))
			}
		}
		return records, nil
	})
}

func belongsToOrder(m *models.PaymentModel, orderID uuid.UUID, allocations map[uuid.UUID]struct{}) bool {
	if m.IsLegacy() {
		_, ok := allocations[*m.AllocationID]
		return ok
	}
	return m.AddressesOrder(orderID)
}

var _ finance.PaymentRepository = (*PaymentRepository)(nil)
