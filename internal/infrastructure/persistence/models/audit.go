package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/audit"
)

// AuditLogModel is the record stored in the audit_logs collection
type AuditLogModel struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	UserID     string          `json:"userId"`
	Timestamp  Timestamp       `json:"timestamp"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// ToDomain converts the record to an audit log entry
func (m *AuditLogModel) ToDomain() *audit.Log {
	return &audit.Log{
		ID:         m.ID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		UserID:     m.UserID,
		Timestamp:  m.Timestamp.Time,
		Details:    m.Details,
	}
}

// AuditLogModelFromDomain builds an audit record
func AuditLogModelFromDomain(l *audit.Log) AuditLogModel {
	return AuditLogModel{
		ID:         l.ID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		UserID:     l.UserID,
		Timestamp:  NewTimestamp(l.Timestamp),
		Details:    l.Details,
	}
}
