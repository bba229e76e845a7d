package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/db"
	apperrors "github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// findByIDsChunk keeps IN lists well below driver placeholder limits.
const findByIDsChunk = 1000

// UserRepositoryImpl implements the user.Repository interface
type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB, logger logger.Interface) user.Repository {
	return &UserRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// FindByIDs loads the existing accounts among ids.
func (r *UserRepositoryImpl) FindByIDs(ctx context.Context, ids []uint) ([]*user.Account, error) {
	if len(ids) == 0 {
		return []*user.Account{}, nil
	}

	tx := db.GetTxFromContext(ctx, r.db)
	userModels := make([]*models.UserModel, 0, len(ids))
	for start := 0; start < len(ids); start += findByIDsChunk {
		end := start + findByIDsChunk
		if end > len(ids) {
			end = len(ids)
		}
		var chunk []*models.UserModel
		if err := tx.Where("id IN ?", ids[start:end]).Order("id ASC").Find(&chunk).Error; err != nil {
			r.logger.Errorw("failed to load users by ids", "count", len(ids), "error", err)
			return nil, classifyError("failed to load users", err)
		}
		userModels = append(userModels, chunk...)
	}

	accounts, err := mappers.UsersToEntities(userModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map users: %w", err)
	}
	return accounts, nil
}

// ApplyTrafficDelta adds the deltas onto the stored counters in one statement.
func (r *UserRepositoryImpl) ApplyTrafficDelta(ctx context.Context, id uint, upload, download uint64, at int64) error {
	if upload == 0 && download == 0 {
		return nil
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"u": gorm.Expr("u + ?", utils.SafeUint64ToInt64(upload)),
			"d": gorm.Expr("d + ?", utils.SafeUint64ToInt64(download)),
			"t": at,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to apply traffic delta",
			"user_id", id,
			"upload", upload,
			"download", download,
			"error", result.Error,
		)
		return classifyError("failed to apply traffic delta", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user not found", fmt.Sprintf("id=%d", id))
	}
	return nil
}

// CountRegistered counts accounts created in [start, end).
func (r *UserRepositoryImpl) CountRegistered(ctx context.Context, start, end int64) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.UserModel{}).
		Scopes(db.InWindow("created_at", start, end)).
		Count(&count).Error
	if err != nil {
		return 0, classifyError("failed to count registrations", err)
	}
	return count, nil
}

// CountInvited counts accounts created in [start, end) that name an inviter.
func (r *UserRepositoryImpl) CountInvited(ctx context.Context, start, end int64) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.UserModel{}).
		Scopes(db.InWindow("created_at", start, end)).
		Where("invite_user_id IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, classifyError("failed to count invited registrations", err)
	}
	return count, nil
}
