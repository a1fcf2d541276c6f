package telemetry_test

import (
	"context"
	"testing"

	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	recorder := setupTestTracer(t)
	db := openTestDB(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestDBTracingPlugin_Enabled(t *testing.T) {
	recorder := setupTestTracer(t)
	db := openTestDB(t)

	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	plugin := telemetry.NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	assert.Len(t, rows, 1)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	found := false
	for _, s := range spans {
		for _, a := range s.Attributes() {
			if a.Key == "db.sql.table" && a.Value.AsString() == "traced_rows" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a span annotated with the table name")
}
