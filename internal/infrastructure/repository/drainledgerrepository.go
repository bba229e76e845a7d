package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/db"
)

// DrainLedgerRepositoryImpl implements the traffic.LedgerRepository interface
type DrainLedgerRepositoryImpl struct {
	db *gorm.DB
}

// NewDrainLedgerRepository creates a new drain ledger repository instance
func NewDrainLedgerRepository(db *gorm.DB) traffic.LedgerRepository {
	return &DrainLedgerRepositoryImpl{db: db}
}

// Record inserts the ledger row. Call it inside the transaction that applies
// the cycle's deltas.
func (r *DrainLedgerRepositoryImpl) Record(ctx context.Context, entry *traffic.LedgerEntry) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.LedgerToModel(entry)).Error; err != nil {
		return classifyError("failed to record drain ledger", err)
	}
	return nil
}

func (r *DrainLedgerRepositoryImpl) Exists(ctx context.Context, cycleID string) (bool, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.DrainLedgerModel{}).
		Where("cycle_id = ?", cycleID).
		Count(&count).Error
	if err != nil {
		return false, classifyError("failed to look up drain ledger", err)
	}
	return count > 0, nil
}

func (r *DrainLedgerRepositoryImpl) Latest(ctx context.Context) (*traffic.LedgerEntry, error) {
	var m models.DrainLedgerModel
	err := db.GetTxFromContext(ctx, r.db).Order("id DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError("failed to load latest drain ledger", err)
	}
	return mappers.LedgerToEntity(&m), nil
}

func (r *DrainLedgerRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Scopes(db.OlderThan("created_at", cutoff)).
		Delete(&models.DrainLedgerModel{})
	if result.Error != nil {
		return 0, classifyError("failed to delete drain ledger rows", result.Error)
	}
	return result.RowsAffected, nil
}
