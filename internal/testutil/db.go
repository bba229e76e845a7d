package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
)

// NewTestDB opens a private in-memory SQLite database with every table
// migrated. A single connection keeps the shared-cache database alive and
// serialises transactions the way a row-locking server would.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, m *models.UserModel) uint {
	t.Helper()
	if m.Email == "" {
		m.Email = fmt.Sprintf("user%d@example.com", m.ID)
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}
