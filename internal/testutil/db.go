// Package testutil provides helpers shared by repository, service and handler tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/database"
	"github.com/tilequote/quote-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestQuotation stores a quotation priced like the reference floor job
func CreateTestQuotation(t *testing.T, db *gorm.DB, status domain.QuotationStatus) *domain.Quotation {
	t.Helper()

	q := &domain.Quotation{
		Status: status,
		Client: domain.ClientDetails{
			Name:        "Ada Okafor",
			Phone:       "+2348012345678",
			ProjectName: "Lekki duplex",
			ShowName:    true,
		},
		Tiles: []domain.TileItem{
			{Category: "Floor tiles", Sqm: 15, Cartons: 10, Classification: domain.TileFloor, UnitPrice: 5600},
		},
		Materials:       []domain.MaterialItem{},
		WorkmanshipRate: 1700,
		Maintenance:     50000,
		Checklist:       []domain.ChecklistItem{{Label: "Screed floor"}},
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

// CreateTestClient stores a client record
func CreateTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()

	client := &domain.Client{Name: name, Phone: "+2348000000000"}
	require.NoError(t, db.Create(client).Error)
	return client
}

// SaveDefaultSettings stores the default settings row
func SaveDefaultSettings(t *testing.T, db *gorm.DB) *domain.Settings {
	t.Helper()

	settings := domain.DefaultSettings()
	require.NoError(t, db.Save(&settings).Error)
	return &settings
}
