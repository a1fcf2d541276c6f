package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/logistics/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionModel is one collection row in ledger_collections
type CollectionModel struct {
	Key       string `gorm:"column:key;primaryKey;size:64"`
	Data      string `gorm:"column:data;type:text;not null"`
	Version   int64  `gorm:"column:version;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (CollectionModel) TableName() string {
	return "ledger_collections"
}

// SQLStore keeps each collection as a JSON document in one row
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore creates a store on db. The table is created by the migrations.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load implements CollectionStore
func (s *SQLStore) Load(ctx context.Context, key string) (*Collection, error) {
	var model CollectionModel
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Collection{Records: []json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", key, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(model.Data), &records); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", key, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return &Collection{Records: records, Version: model.Version}, nil
}

// Save implements CollectionStore. The first write inserts the row; later
// writes update it only while the stored version still matches.
func (s *SQLStore) Save(ctx context.Context, key string, records []json.RawMessage, expectedVersion int64) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}

	db := s.db.WithContext(ctx)
	now := time.Now().UTC()

	var result *gorm.DB
	if expectedVersion == 0 {
		result = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&CollectionModel{
			Key:       key,
			Data:      string(data),
			Version:   1,
			UpdatedAt: now,
		})
	} else {
		result = db.Model(&CollectionModel{}).
			Where("key = ? AND version = ?", key, expectedVersion).
			Updates(map[string]interface{}{
				"data":       string(data),
				"version":    expectedVersion + 1,
				"updated_at": now,
			})
	}
	if result.Error != nil {
		return fmt.Errorf("save collection %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ CollectionStore = (*SQLStore)(nil)
