package persistence

import (
	"context"
	"sort"

	"github.com/logistics/backend/internal/domain/audit"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// AuditRepository implements audit.Repository over the audit_logs collection
type AuditRepository struct {
	logs collection[models.AuditLogModel]
}

// NewAuditRepository creates an audit repository on s
func NewAuditRepository(s store.CollectionStore) *AuditRepository {
	return &AuditRepository{
		logs: newCollection[models.AuditLogModel](s, store.KeyAuditLogs),
	}
}

// Append adds one entry
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Log) error {
	return r.logs.update(ctx, func(records []models.AuditLogModel) ([]models.AuditLogModel, error) {
		return append(records, models.AuditLogModelFromDomain(entry)), nil
	})
}

// Find returns matching entries newest first, at most filter.Limit when positive
func (r *AuditRepository) Find(ctx context.Context, filter audit.Filter) ([]audit.Log, error) {
	records, err := r.logs.all(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]audit.Log, 0)
	for i := range records {
		entry := records[i].ToDomain()
		if filter.Matches(*entry) {
			result = append(result, *entry)
		}
	}

	// records are appended in time order, so reverse before the stable sort
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ audit.Repository = (*AuditRepository)(nil)
