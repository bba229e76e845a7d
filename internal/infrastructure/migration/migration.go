package migration

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// Manager handles database migrations with the strategy matching the driver.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose scripts for mysql and postgres and AutoMigrate for sqlite.
func NewManager(driver string, log logger.Interface) (*Manager, error) {
	var strategy Strategy
	switch driver {
	case "mysql", "postgres":
		s, err := NewGooseStrategy(driver, log)
		if err != nil {
			return nil, err
		}
		strategy = s
	case "sqlite":
		strategy = NewGormAutoMigrateStrategy(log)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return NewManagerWithStrategy(strategy, log), nil
}

// NewManagerWithStrategy creates a new migration manager with a specific strategy
func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

// Up applies every pending migration.
func (m *Manager) Up(ctx context.Context, db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.Name())

	if err := m.strategy.Up(ctx, db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.Name(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.Name(), err)
	}
	return nil
}

// Down rolls back steps migrations.
func (m *Manager) Down(ctx context.Context, db *gorm.DB, steps int) error {
	if err := m.strategy.Down(ctx, db, steps); err != nil {
		return fmt.Errorf("rollback failed with strategy %s: %w", m.strategy.Name(), err)
	}
	return nil
}

func (m *Manager) Status(ctx context.Context, db *gorm.DB) error {
	return m.strategy.Status(ctx, db)
}

// Strategy returns the current migration strategy
func (m *Manager) Strategy() Strategy {
	return m.strategy
}
