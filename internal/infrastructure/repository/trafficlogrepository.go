package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/db"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

const trafficLogBatchSize = 500

// TrafficLogRepositoryImpl appends node reports and sums them per period.
// It serves both traffic.LogWriter and stat.TrafficLogReader.
type TrafficLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewTrafficLogRepository creates a new traffic log repository instance
func NewTrafficLogRepository(db *gorm.DB, logger logger.Interface) *TrafficLogRepositoryImpl {
	return &TrafficLogRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *TrafficLogRepositoryImpl) Append(ctx context.Context, entries []*traffic.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	logModels := mappers.TrafficLogsToModels(entries)
	if err := db.GetTxFromContext(ctx, r.db).CreateInBatches(logModels, trafficLogBatchSize).Error; err != nil {
		r.logger.Errorw("failed to append traffic logs", "count", len(entries), "error", err)
		return classifyError("failed to append traffic logs", err)
	}
	return nil
}

func (r *TrafficLogRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Scopes(db.OlderThan("log_at", cutoff)).
		Delete(&models.TrafficLogModel{})
	if result.Error != nil {
		return 0, classifyError("failed to delete traffic logs", result.Error)
	}
	return result.RowsAffected, nil
}

// SumUsers sums raw traffic per (user, rate) in [start, end).
func (r *TrafficLogRepositoryImpl) SumUsers(ctx context.Context, start, end int64) ([]stat.UserUsage, error) {
	var rows []struct {
		UserID     uint
		ServerRate float64
		U          uint64
		D          uint64
	}
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.TrafficLogModel{}).
		Select("user_id, server_rate, COALESCE(SUM(u), 0) AS u, COALESCE(SUM(d), 0) AS d").
		Scopes(db.InWindow("log_at", start, end)).
		Group("user_id, server_rate").
		Order("user_id ASC, server_rate ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError("failed to sum user traffic logs", err)
	}

	usage := make([]stat.UserUsage, 0, len(rows))
	for _, row := range rows {
		usage = append(usage, stat.UserUsage{
			UserID:     row.UserID,
			ServerRate: row.ServerRate,
			Upload:     row.U,
			Download:   row.D,
		})
	}
	return usage, nil
}

// SumServers sums raw traffic per (server, type) in [start, end).
func (r *TrafficLogRepositoryImpl) SumServers(ctx context.Context, start, end int64) ([]stat.ServerUsage, error) {
	var rows []struct {
		ServerID   uint
		ServerType string
		U          uint64
		D          uint64
	}
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.TrafficLogModel{}).
		Select("server_id, server_type, COALESCE(SUM(u), 0) AS u, COALESCE(SUM(d), 0) AS d").
		Scopes(db.InWindow("log_at", start, end)).
		Group("server_id, server_type").
		Order("server_id ASC, server_type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError("failed to sum server traffic logs", err)
	}

	usage := make([]stat.ServerUsage, 0, len(rows))
	for _, row := range rows {
		usage = append(usage, stat.ServerUsage{
			ServerID:   row.ServerID,
			ServerType: row.ServerType,
			Upload:     row.U,
			Download:   row.D,
		})
	}
	return usage, nil
}
