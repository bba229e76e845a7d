package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/order"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/db"
)

// OrderRepositoryImpl implements the order.Repository interface
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &OrderRepositoryImpl{db: db}
}

type summaryRow struct {
	Cnt   int64
	Total int64
}

func (s summaryRow) toSummary() order.Summary {
	return order.Summary{Count: s.Cnt, Total: s.Total}
}

// SumCreated counts and sums every order created in the window.
func (r *OrderRepositoryImpl) SumCreated(ctx context.Context, start, end int64) (order.Summary, error) {
	var row summaryRow
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(total_amount), 0) AS total").
		Scopes(db.InWindow("created_at", start, end)).
		Scan(&row).Error
	if err != nil {
		return order.Summary{}, classifyError("failed to sum created orders", err)
	}
	return row.toSummary(), nil
}

// SumPaid counts and sums orders paid in the window.
func (r *OrderRepositoryImpl) SumPaid(ctx context.Context, start, end int64) (order.Summary, error) {
	var row summaryRow
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(total_amount), 0) AS total").
		Scopes(db.InWindow("paid_at", start, end)).
		Where("status IN ?", order.PaidStatuses()).
		Scan(&row).Error
	if err != nil {
		return order.Summary{}, classifyError("failed to sum paid orders", err)
	}
	return row.toSummary(), nil
}

// SumCommission counts and sums commission payouts logged in the window.
func (r *OrderRepositoryImpl) SumCommission(ctx context.Context, start, end int64) (order.Summary, error) {
	var row summaryRow
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.CommissionLogModel{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(get_amount), 0) AS total").
		Scopes(db.InWindow("created_at", start, end)).
		Scan(&row).Error
	if err != nil {
		return order.Summary{}, classifyError("failed to sum commissions", err)
	}
	return row.toSummary(), nil
}
