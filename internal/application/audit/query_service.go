package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/audit"
	"github.com/logistics/backend/internal/domain/shared"
)

// DefaultLimit caps audit listings when the caller gives no limit
const DefaultLimit = 100

// ListRequest filters the audit trail
type ListRequest struct {
	EntityType string `form:"entity_type" binding:"omitempty,max=64"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// LogResponse is one audit entry in API responses
type LogResponse struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	UserID     string          `json:"user_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// QueryService reads the audit trail
type QueryService struct {
	repo audit.Repository
}

// NewQueryService creates a new QueryService
func NewQueryService(repo audit.Repository) *QueryService {
	return &QueryService{repo: repo}
}

// List returns matching audit entries, newest first
func (s *QueryService) List(ctx context.Context, req ListRequest) ([]LogResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	filter := audit.Filter{EntityType: req.EntityType, Limit: limit}
	if req.EntityID != "" {
		id, err := uuid.Parse(req.EntityID)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "entity_id must be a UUID")
		}
		filter.EntityID = id
	}
	logs, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, LogResponse{
			ID:         l.ID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			UserID:     l.UserID,
			Timestamp:  l.Timestamp,
			Details:    l.Details,
		})
	}
	return result, nil
}
