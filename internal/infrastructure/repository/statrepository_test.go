package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	apperrors "github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

const testRecordAt = int64(1717171200)

func TestStatRepository_UpsertGlobalIsIdempotent(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())
	ctx := context.Background()

	first := &stat.GlobalStat{RecordAt: testRecordAt, RecordType: stat.GranularityDaily, OrderCount: 3, OrderTotal: 900}
	require.NoError(t, repo.UpsertGlobal(ctx, first))

	second := &stat.GlobalStat{RecordAt: testRecordAt, RecordType: stat.GranularityDaily, OrderCount: 4, OrderTotal: 1200, TransferUsedTotal: 77}
	require.NoError(t, repo.UpsertGlobal(ctx, second))
	require.NoError(t, repo.UpsertGlobal(ctx, second))

	var count int64
	require.NoError(t, gdb.Model(&models.StatModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.FindGlobal(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStatRepository_UpsertGlobalZeroesFields(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())
	ctx := context.Background()

	require.NoError(t, repo.UpsertGlobal(ctx, &stat.GlobalStat{RecordAt: testRecordAt, RecordType: stat.GranularityDaily, PaidCount: 2}))
	require.NoError(t, repo.UpsertGlobal(ctx, &stat.GlobalStat{RecordAt: testRecordAt, RecordType: stat.GranularityDaily}))

	got, err := repo.FindGlobal(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestStatRepository_UpsertGlobalRejectsInvalidType(t *testing.T) {
	repo := NewStatRepository(testutil.NewTestDB(t), testutil.NewMockLogger())
	err := repo.UpsertGlobal(context.Background(), &stat.GlobalStat{RecordAt: testRecordAt, RecordType: "x"})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestStatRepository_FindGlobalNotFound(t *testing.T) {
	repo := NewStatRepository(testutil.NewTestDB(t), testutil.NewMockLogger())
	_, err := repo.FindGlobal(context.Background(), testRecordAt, stat.GranularityDaily)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestStatRepository_InsertUserStatsOverwritesOnRerun(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())
	ctx := context.Background()

	rows := []*stat.UserStat{
		{UserID: 1, ServerRate: 1, Upload: 10, Download: 20, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{UserID: 1, ServerRate: 1.5, Upload: 5, Download: 5, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{UserID: 2, ServerRate: 1, Upload: 1, Download: 1, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
	}
	require.NoError(t, repo.InsertUserStats(ctx, rows))

	rerun := []*stat.UserStat{
		{UserID: 1, ServerRate: 1, Upload: 11, Download: 21, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
	}
	require.NoError(t, repo.InsertUserStats(ctx, rerun))

	got, err := repo.ListUserStats(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(11), got[0].Upload)
	assert.Equal(t, uint64(21), got[0].Download)
	assert.Equal(t, 1.5, got[1].ServerRate)

	total, n, err := repo.SumUserTransfer(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, uint64(11+21+5+5+1+1), total)
}

func TestStatRepository_InsertUserStatsAllOrNothing(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())

	// The last row lands in a second INSERT batch and is rejected there, so
	// the first batch must be rolled back with it.
	require.NoError(t, gdb.Exec("CREATE TRIGGER reject_user_99 BEFORE INSERT ON v2_stat_user WHEN NEW.user_id = 99999 BEGIN SELECT RAISE(ABORT, 'rejected'); END").Error)

	rows := make([]*stat.UserStat, 0, statInsertBatchSize+1)
	for i := 1; i <= statInsertBatchSize; i++ {
		rows = append(rows, &stat.UserStat{UserID: uint(i), ServerRate: 1, Upload: 10, RecordType: stat.GranularityDaily, RecordAt: testRecordAt})
	}
	rows = append(rows, &stat.UserStat{UserID: 99999, ServerRate: 1, Upload: 10, RecordType: stat.GranularityDaily, RecordAt: testRecordAt})
	require.Error(t, repo.InsertUserStats(context.Background(), rows))

	var count int64
	require.NoError(t, gdb.Model(&models.StatUserModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStatRepository_InsertServerStats(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())
	ctx := context.Background()

	rows := []*stat.ServerStat{
		{ServerID: 2, ServerType: "vmess", Upload: 100, Download: 200, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{ServerID: 1, ServerType: "trojan", Upload: 1, Download: 2, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{ServerID: 1, ServerType: "vmess", Upload: 3, Download: 4, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
	}
	require.NoError(t, repo.InsertServerStats(ctx, rows))
	require.NoError(t, repo.InsertServerStats(ctx, rows))

	got, err := repo.ListServerStats(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "trojan", got[0].ServerType)
	assert.Equal(t, "vmess", got[1].ServerType)
	assert.Equal(t, uint(2), got[2].ServerID)
}

func TestStatRepository_RerunWithoutUniqueKeys(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	repo := NewStatRepository(gdb, testutil.NewMockLogger())
	ctx := context.Background()

	// Panel-created tables carry no period unique keys.
	require.NoError(t, gdb.Exec("DROP INDEX uk_stat_user_period").Error)
	require.NoError(t, gdb.Exec("DROP INDEX uk_stat_server_period").Error)

	users := []*stat.UserStat{
		{UserID: 1, ServerRate: 1, Upload: 10, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{UserID: 1, ServerRate: 0.5, Upload: 4, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{UserID: 2, ServerRate: 1, Upload: 7, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{UserID: 2, ServerRate: 1, Upload: 9, RecordType: stat.GranularityDaily, RecordAt: testRecordAt + 86400},
	}
	servers := []*stat.ServerStat{
		{ServerID: 1, ServerType: "vmess", Upload: 3, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
		{ServerID: 1, ServerType: "trojan", Upload: 5, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.InsertUserStats(ctx, users))
		require.NoError(t, repo.InsertServerStats(ctx, servers))
	}

	rerun := []*stat.UserStat{
		{UserID: 1, ServerRate: 1, Upload: 12, RecordType: stat.GranularityDaily, RecordAt: testRecordAt},
	}
	require.NoError(t, repo.InsertUserStats(ctx, rerun))

	var userRows, serverRows int64
	require.NoError(t, gdb.Model(&models.StatUserModel{}).Count(&userRows).Error)
	require.NoError(t, gdb.Model(&models.StatServerModel{}).Count(&serverRows).Error)
	assert.Equal(t, int64(4), userRows)
	assert.Equal(t, int64(2), serverRows)

	total, n, err := repo.SumUserTransfer(ctx, testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, uint64(12+4+7), total)
}

func TestChunkIDs(t *testing.T) {
	assert.Equal(t, [][]uint{{1, 2}, {3, 4}, {5}}, chunkIDs([]uint{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]uint{{1, 2}}, chunkIDs([]uint{1, 2}, 2))
}

func TestStatRepository_EmptyBatches(t *testing.T) {
	repo := NewStatRepository(testutil.NewTestDB(t), testutil.NewMockLogger())
	assert.NoError(t, repo.InsertUserStats(context.Background(), nil))
	assert.NoError(t, repo.InsertServerStats(context.Background(), nil))

	total, n, err := repo.SumUserTransfer(context.Background(), testRecordAt, stat.GranularityDaily)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, n)
}
