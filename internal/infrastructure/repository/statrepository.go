package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/db"
	apperrors "github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/mapper"
)

const statInsertBatchSize = 500

// StatRepositoryImpl implements the stat.Repository interface
type StatRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewStatRepository creates a new stat repository instance
func NewStatRepository(db *gorm.DB, logger logger.Interface) stat.Repository {
	return &StatRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// UpsertGlobal updates the period's row in place or inserts it. A concurrent
// insert of the same period surfaces as a duplicate key and is retried as an update.
func (r *StatRepositoryImpl) UpsertGlobal(ctx context.Context, g *stat.GlobalStat) error {
	if !g.RecordType.IsValid() {
		return apperrors.NewValidationError("invalid record type", g.RecordType.String())
	}

	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		updated, err := r.updateGlobal(tx, g)
		if err != nil || updated {
			return err
		}
		return tx.Create(mappers.GlobalStatToModel(g)).Error
	})
	if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateError(err)) {
		_, err = r.updateGlobal(db.GetTxFromContext(ctx, r.db), g)
	}
	if err != nil {
		r.logger.Errorw("failed to upsert global stat",
			"record_at", g.RecordAt,
			"record_type", g.RecordType,
			"error", err,
		)
		return classifyError("failed to upsert global stat", err)
	}

	r.logger.Infow("global stat upserted",
		"record_at", g.RecordAt,
		"date", biztime.FormatDate(biztime.FromUnix(g.RecordAt)),
	)
	return nil
}

func (r *StatRepositoryImpl) updateGlobal(tx *gorm.DB, g *stat.GlobalStat) (bool, error) {
	var existing models.StatModel
	err := tx.Where("record_at = ? AND record_type = ?", g.RecordAt, g.RecordType.String()).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := tx.Model(&existing).Updates(mappers.GlobalStatFields(g)).Error; err != nil {
		return false, err
	}
	return true, nil
}

// InsertUserStats writes the batch in one transaction. Rows already present
// for the same key are replaced. Existing panel tables may lack the unique
// key, so the old rows are deleted instead of relying on ON CONFLICT.
func (r *StatRepositoryImpl) InsertUserStats(ctx context.Context, rows []*stat.UserStat) error {
	if len(rows) == 0 {
		return nil
	}

	statModels := mappers.UserStatsToModels(rows)
	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := deleteUserStatKeys(tx, rows); err != nil {
			return err
		}
		return tx.CreateInBatches(statModels, statInsertBatchSize).Error
	})
	if err != nil {
		r.logger.Errorw("failed to insert user stats",
			"rows", len(rows),
			"record_at", rows[0].RecordAt,
			"error", err,
		)
		return classifyError("failed to insert user stats", err)
	}
	return nil
}

// InsertServerStats writes the batch in one transaction. Rows already present
// for the same key are replaced.
func (r *StatRepositoryImpl) InsertServerStats(ctx context.Context, rows []*stat.ServerStat) error {
	if len(rows) == 0 {
		return nil
	}

	statModels := mappers.ServerStatsToModels(rows)
	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := deleteServerStatKeys(tx, rows); err != nil {
			return err
		}
		return tx.CreateInBatches(statModels, statInsertBatchSize).Error
	})
	if err != nil {
		r.logger.Errorw("failed to insert server stats",
			"rows", len(rows),
			"record_at", rows[0].RecordAt,
			"error", err,
		)
		return classifyError("failed to insert server stats", err)
	}
	return nil
}

// serverRateTolerance matches a rate against the two-decimal column.
const serverRateTolerance = 0.005

type userStatGroup struct {
	recordAt   int64
	recordType string
	rate       float64
}

// deleteUserStatKeys removes rows sharing a key with the batch, grouped by
// period and rate so each statement is one user id list.
func deleteUserStatKeys(tx *gorm.DB, rows []*stat.UserStat) error {
	groups := make(map[userStatGroup][]uint)
	for _, row := range rows {
		g := userStatGroup{recordAt: row.RecordAt, recordType: row.RecordType.String(), rate: row.ServerRate}
		groups[g] = append(groups[g], row.UserID)
	}

	for g, ids := range groups {
		for _, chunk := range chunkIDs(ids, statInsertBatchSize) {
			err := tx.Where("record_at = ? AND record_type = ? AND server_rate BETWEEN ? AND ? AND user_id IN ?",
				g.recordAt, g.recordType, g.rate-serverRateTolerance, g.rate+serverRateTolerance, chunk).
				Delete(&models.StatUserModel{}).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

type serverStatGroup struct {
	recordAt   int64
	recordType string
	serverType string
}

func deleteServerStatKeys(tx *gorm.DB, rows []*stat.ServerStat) error {
	groups := make(map[serverStatGroup][]uint)
	for _, row := range rows {
		g := serverStatGroup{recordAt: row.RecordAt, recordType: row.RecordType.String(), serverType: row.ServerType}
		groups[g] = append(groups[g], row.ServerID)
	}

	for g, ids := range groups {
		for _, chunk := range chunkIDs(ids, statInsertBatchSize) {
			err := tx.Where("record_at = ? AND record_type = ? AND server_type = ? AND server_id IN ?",
				g.recordAt, g.recordType, g.serverType, chunk).
				Delete(&models.StatServerModel{}).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func chunkIDs(ids []uint, size int) [][]uint {
	chunks := make([][]uint, 0, (len(ids)+size-1)/size)
	for size < len(ids) {
		ids, chunks = ids[size:], append(chunks, ids[:size])
	}
	return append(chunks, ids)
}

// SumUserTransfer sums u+d over the persisted user rows of a period.
func (r *StatRepositoryImpl) SumUserTransfer(ctx context.Context, recordAt int64, granularity stat.Granularity) (uint64, int64, error) {
	var result struct {
		Total    uint64
		RowCount int64
	}
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.StatUserModel{}).
		Select("COALESCE(SUM(u + d), 0) AS total, COUNT(*) AS row_count").
		Where("record_at = ? AND record_type = ?", recordAt, granularity.String()).
		Scan(&result).Error
	if err != nil {
		return 0, 0, classifyError("failed to sum user transfer", err)
	}
	return result.Total, result.RowCount, nil
}

// FindGlobal returns the global row of a period.
func (r *StatRepositoryImpl) FindGlobal(ctx context.Context, recordAt int64, granularity stat.Granularity) (*stat.GlobalStat, error) {
	var m models.StatModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("record_at = ? AND record_type = ?", recordAt, granularity.String()).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("global stat not found", fmt.Sprintf("record_at=%d", recordAt))
	}
	if err != nil {
		return nil, classifyError("failed to find global stat", err)
	}
	return mappers.GlobalStatToEntity(&m), nil
}

func (r *StatRepositoryImpl) ListUserStats(ctx context.Context, recordAt int64, granularity stat.Granularity) ([]*stat.UserStat, error) {
	var rows []*models.StatUserModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("record_at = ? AND record_type = ?", recordAt, granularity.String()).
		Order("user_id ASC, server_rate ASC").
		Find(&rows).Error
	if err != nil {
		return nil, classifyError("failed to list user stats", err)
	}
	return mapper.MapSlice(rows, mappers.UserStatToEntity), nil
}

func (r *StatRepositoryImpl) ListServerStats(ctx context.Context, recordAt int64, granularity stat.Granularity) ([]*stat.ServerStat, error) {
	var rows []*models.StatServerModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("record_at = ? AND record_type = ?", recordAt, granularity.String()).
		Order("server_id ASC, server_type ASC").
		Find(&rows).Error
	if err != nil {
		return nil, classifyError("failed to list server stats", err)
	}
	return mapper.MapSlice(rows, mappers.ServerStatToEntity), nil
}
