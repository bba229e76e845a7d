package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/shared/config"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "trafficstat.db"),
	}

	gdb, err := Open(cfg)
	require.NoError(t, err)

	var mode string
	require.NoError(t, gdb.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Close())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", Database: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestInitAndClose(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "init.db"),
	}
	require.NoError(t, Init(cfg))
	assert.NotNil(t, Get())
	assert.NoError(t, Close())
}

func TestGetDSN(t *testing.T) {
	mysqlCfg := &config.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Username: "u", Password: "p", Database: "v2board"}
	assert.Equal(t, "u:p@tcp(db:3306)/v2board?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=Local", mysqlCfg.GetDSN())

	pgCfg := &config.DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Username: "u", Password: "p", Database: "v2board"}
	assert.Contains(t, pgCfg.GetDSN(), "host=db port=5432 user=u")

	explicit := &config.DatabaseConfig{Driver: "postgres", DSN: "postgres://x"}
	assert.Equal(t, "postgres://x", explicit.GetDSN())
}
