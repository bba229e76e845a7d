package migration

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

//go:embed scripts
var scripts embed.FS

// goose keeps dialect and base FS in package state.
var gooseMu sync.Mutex

// Strategy defines the interface for different migration strategies
type Strategy interface {
	Up(ctx context.Context, db *gorm.DB) error
	Down(ctx context.Context, db *gorm.DB, steps int) error
	Status(ctx context.Context, db *gorm.DB) error
	Name() string
}

// GooseStrategy runs the versioned SQL scripts embedded for one dialect.
type GooseStrategy struct {
	dialect string
	fsys    fs.FS
	logger  logger.Interface
}

// NewGooseStrategy creates a goose strategy for "mysql" or "postgres".
func NewGooseStrategy(dialect string, log logger.Interface) (*GooseStrategy, error) {
	sub, err := fs.Sub(scripts, "scripts/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("no migration scripts for dialect %s: %w", dialect, err)
	}
	return &GooseStrategy{
		dialect: dialect,
		fsys:    sub,
		logger:  log.With("component", "migration.goose"),
	}, nil
}

func (s *GooseStrategy) Name() string {
	return "goose"
}

// with runs fn while goose's package state points at this dialect.
func (s *GooseStrategy) with(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(s.fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return fn()
}

func (s *GooseStrategy) Up(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return s.with(func() error {
		currentVersion, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			s.logger.Errorw("failed to get current version", "error", err)
			return fmt.Errorf("failed to get current version: %w", err)
		}

		if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
			s.logger.Errorw("migration failed", "error", err)
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		finalVersion, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get final version: %w", err)
		}

		s.logger.Infow("migration completed successfully",
			"dialect", s.dialect,
			"from_version", currentVersion,
			"to_version", finalVersion)
		return nil
	})
}

func (s *GooseStrategy) Down(ctx context.Context, db *gorm.DB, steps int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return s.with(func() error {
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
				s.logger.Errorw("down migration failed", "step", i+1, "error", err)
				return fmt.Errorf("failed to run down migration: %w", err)
			}
		}
		s.logger.Infow("down migration completed successfully", "steps", steps)
		return nil
	})
}

func (s *GooseStrategy) Status(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return s.with(func() error {
		if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		return nil
	})
}

// GormAutoMigrateStrategy derives the schema from the gorm models. It backs
// SQLite deployments and tests.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log.With("component", "migration.automigrate")}
}

func (s *GormAutoMigrateStrategy) Name() string {
	return "gorm_auto_migrate"
}

func (s *GormAutoMigrateStrategy) Up(ctx context.Context, db *gorm.DB) error {
	all := models.All()
	if err := db.WithContext(ctx).AutoMigrate(all...); err != nil {
		s.logger.Errorw("auto migrate failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	s.logger.Infow("auto migrate completed", "models_count", len(all))
	return nil
}

// Down drops the tables owned by this service. Panel tables are kept.
func (s *GormAutoMigrateStrategy) Down(ctx context.Context, db *gorm.DB, steps int) error {
	if steps <= 0 {
		return nil
	}
	if err := db.WithContext(ctx).Migrator().DropTable(&models.DrainLedgerModel{}, &models.TrafficLogModel{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	s.logger.Infow("dropped service tables")
	return nil
}

func (s *GormAutoMigrateStrategy) Status(ctx context.Context, db *gorm.DB) error {
	migrator := db.WithContext(ctx).Migrator()
	for _, m := range models.All() {
		s.logger.Infow("table status", "model", fmt.Sprintf("%T", m), "exists", migrator.HasTable(m))
	}
	return nil
}
