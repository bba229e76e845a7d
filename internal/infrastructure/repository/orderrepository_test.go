package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/domain/order"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

func paidAt(v int64) *int64 { return &v }

func TestOrderRepository_Sums(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	orders := []*models.OrderModel{
		{TradeNo: "a", TotalAmount: 1000, Status: int(order.StatusCompleted), PaidAt: paidAt(150), CreatedAt: 100},
		{TradeNo: "b", TotalAmount: 500, Status: int(order.StatusPending), CreatedAt: 120},
		{TradeNo: "c", TotalAmount: 700, Status: int(order.StatusCancelled), PaidAt: paidAt(130), CreatedAt: 110},
		{TradeNo: "d", TotalAmount: 300, Status: int(order.StatusDiscounted), PaidAt: paidAt(199), CreatedAt: 50},
		{TradeNo: "e", TotalAmount: 900, Status: int(order.StatusProcessing), PaidAt: paidAt(200), CreatedAt: 200},
	}
	require.NoError(t, gdb.Create(&orders).Error)
	commissions := []*models.CommissionLogModel{
		{InviteUserID: 1, UserID: 2, TradeNo: "a", OrderAmount: 1000, GetAmount: 100, CreatedAt: 160},
		{InviteUserID: 1, UserID: 3, TradeNo: "x", OrderAmount: 1000, GetAmount: 50, CreatedAt: 250},
	}
	require.NoError(t, gdb.Create(&commissions).Error)

	repo := NewOrderRepository(gdb)
	ctx := context.Background()

	created, err := repo.SumCreated(ctx, 100, 200)
	require.NoError(t, err)
	assert.Equal(t, order.Summary{Count: 3, Total: 2200}, created)

	paid, err := repo.SumPaid(ctx, 100, 200)
	require.NoError(t, err)
	assert.Equal(t, order.Summary{Count: 2, Total: 1300}, paid)

	commission, err := repo.SumCommission(ctx, 100, 200)
	require.NoError(t, err)
	assert.Equal(t, order.Summary{Count: 1, Total: 100}, commission)
}

func TestOrderRepository_EmptyWindow(t *testing.T) {
	repo := NewOrderRepository(testutil.NewTestDB(t))

	created, err := repo.SumCreated(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, order.Summary{}, created)
}
