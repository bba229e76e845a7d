package stat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/infrastructure/repository"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

// 2025-03-01 in Asia/Shanghai is [2025-02-28T16:00Z, 2025-03-01T16:00Z).
var (
	testDay     = time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC)
	windowStart = time.Date(2025, 2, 28, 16, 0, 0, 0, time.UTC).Unix()
	windowEnd   = time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC).Unix()
)

func newAggregator(t *testing.T, gdb *gorm.DB, source UsageSource) *Aggregator {
	t.Helper()
	log := testutil.NewMockLogger()
	return NewAggregator(
		stat.NewDayWindow(testDay),
		source,
		repository.NewOrderRepository(gdb),
		repository.NewUserRepository(gdb, log),
		repository.NewStatRepository(gdb, log),
		log,
	)
}

func int64Ptr(v int64) *int64 { return &v }

func TestAggregator_ZeroActivity(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	gdb := testutil.NewTestDB(t)
	agg := newAggregator(t, gdb, NewLiveUsageSource(NewMemoryAccumulator()))
	ctx := context.Background()

	users, err := agg.ComputeUserStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	servers, err := agg.ComputeServerStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, servers)

	g, err := agg.ComputeGlobalStats(ctx)
	require.NoError(t, err)
	assert.True(t, g.IsZero())
	assert.Equal(t, windowStart, g.RecordAt)
	assert.Equal(t, stat.GranularityDaily, g.RecordType)
}

func TestAggregator_GlobalStats(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	gdb := testutil.NewTestDB(t)
	ctx := context.Background()

	inviter := uint(1)
	testutil.SeedUser(t, gdb, &models.UserModel{ID: 1, CreatedAt: windowStart - 100})
	testutil.SeedUser(t, gdb, &models.UserModel{ID: 2, CreatedAt: windowStart})
	testutil.SeedUser(t, gdb, &models.UserModel{ID: 3, CreatedAt: windowEnd - 1, InviteUserID: &inviter})
	testutil.SeedUser(t, gdb, &models.UserModel{ID: 4, CreatedAt: windowEnd, InviteUserID: &inviter})

	orders := []models.OrderModel{
		{UserID: 2, TradeNo: "a", TotalAmount: 1000, Status: 3, PaidAt: int64Ptr(windowStart + 10), CreatedAt: windowStart + 5},
		{UserID: 2, TradeNo: "b", TotalAmount: 500, Status: 0, CreatedAt: windowStart + 6},
		{UserID: 3, TradeNo: "c", TotalAmount: 700, Status: 2, PaidAt: int64Ptr(windowStart + 20), CreatedAt: windowStart + 7},
		// Created the day before, paid inside the window.
		{UserID: 1, TradeNo: "d", TotalAmount: 300, Status: 4, PaidAt: int64Ptr(windowStart + 30), CreatedAt: windowStart - 50},
	}
	require.NoError(t, gdb.Create(&orders).Error)
	require.NoError(t, gdb.Create(&[]models.CommissionLogModel{
		{InviteUserID: 1, UserID: 3, TradeNo: "a", OrderAmount: 1000, GetAmount: 100, CreatedAt: windowStart + 11},
		{InviteUserID: 1, UserID: 3, TradeNo: "z", OrderAmount: 1000, GetAmount: 100, CreatedAt: windowEnd + 1},
	}).Error)

	acc := NewMemoryAccumulator()
	require.NoError(t, acc.AddUser(ctx, testDay, 1, 1, 100, 200))
	agg := newAggregator(t, gdb, NewLiveUsageSource(acc))

	g, err := agg.ComputeGlobalStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), g.OrderCount)
	assert.Equal(t, int64(2200), g.OrderTotal)
	assert.Equal(t, int64(2), g.PaidCount)
	assert.Equal(t, int64(1300), g.PaidTotal)
	assert.Equal(t, int64(1), g.CommissionCount)
	assert.Equal(t, int64(100), g.CommissionTotal)
	assert.Equal(t, int64(2), g.RegisterCount)
	assert.Equal(t, int64(1), g.InviteCount)
	// No persisted user rows yet: the live source is used.
	assert.Equal(t, uint64(300), g.TransferUsedTotal)

	stats := repository.NewStatRepository(gdb, testutil.NewMockLogger())
	require.NoError(t, stats.InsertUserStats(ctx, []*stat.UserStat{
		{UserID: 1, ServerRate: 1, Upload: 1000, Download: 24, RecordType: stat.GranularityDaily, RecordAt: windowStart},
	}))
	g, err = agg.ComputeGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), g.TransferUsedTotal)
}

func TestAggregator_UserAndServerStats(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	gdb := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := NewMemoryAccumulator()
	require.NoError(t, acc.AddUser(ctx, testDay, 1, 5, 10, 0))
	require.NoError(t, acc.AddUser(ctx, testDay, 1, 3, 0, 7))
	require.NoError(t, acc.AddServer(ctx, testDay, 2, "trojan", 3, 4))
	agg := newAggregator(t, gdb, NewLiveUsageSource(acc))

	users, err := agg.ComputeUserStats(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, uint(3), users[0].UserID)
	assert.Equal(t, uint(5), users[1].UserID)
	assert.Equal(t, windowStart, users[0].RecordAt)
	assert.Equal(t, stat.GranularityDaily, users[0].RecordType)

	servers, err := agg.ComputeServerStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*stat.ServerStat{{
		ServerID: 2, ServerType: "trojan", Upload: 3, Download: 4,
		RecordType: stat.GranularityDaily, RecordAt: windowStart,
	}}, servers)

	require.NoError(t, agg.ClearUserStats(ctx))
	require.NoError(t, agg.ClearServerStats(ctx))
	users, err = agg.ComputeUserStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAggregator_LogSourceMatchesShape(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	gdb := testutil.NewTestDB(t)
	ctx := context.Background()
	logs := repository.NewTrafficLogRepository(gdb, testutil.NewMockLogger())

	require.NoError(t, logs.Append(ctx, []*traffic.LogEntry{
		{UserID: 1, ServerID: 2, ServerType: "vmess", ServerRate: 1, Upload: 10, Download: 20, LogAt: windowStart},
		{UserID: 1, ServerID: 3, ServerType: "vmess", ServerRate: 1, Upload: 1, Download: 2, LogAt: windowEnd - 1},
		{UserID: 1, ServerID: 2, ServerType: "vmess", ServerRate: 1, Upload: 99, Download: 99, LogAt: windowEnd},
	}))

	source := NewLogUsageSource(logs)
	agg := newAggregator(t, gdb, source)

	users, err := agg.ComputeUserStats(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, uint64(11), users[0].Upload)
	assert.Equal(t, uint64(22), users[0].Download)

	servers, err := agg.ComputeServerStats(ctx)
	require.NoError(t, err)
	assert.Len(t, servers, 2)

	// Clearing never deletes log rows.
	require.NoError(t, agg.ClearUserStats(ctx))
	users, err = agg.ComputeUserStats(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
