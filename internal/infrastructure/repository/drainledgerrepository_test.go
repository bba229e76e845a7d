package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	apperrors "github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

func TestDrainLedgerRepository(t *testing.T) {
	repo := NewDrainLedgerRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	entry := &traffic.LedgerEntry{
		CycleID:       "dc_AAAAAAAAAAAA",
		Users:         2,
		UploadTotal:   300,
		DownloadTotal: 400,
		Keys:          map[string]uint64{"prefixed/v2board_upload_traffic": 300},
		CreatedAt:     1000,
	}
	require.NoError(t, repo.Record(ctx, entry))
	require.NoError(t, repo.Record(ctx, &traffic.LedgerEntry{CycleID: "dc_BBBBBBBBBBBB", CreatedAt: 2000}))

	ok, err := repo.Exists(ctx, "dc_AAAAAAAAAAAA")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "dc_CCCCCCCCCCCC")
	require.NoError(t, err)
	assert.False(t, ok)

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "dc_BBBBBBBBBBBB", latest.CycleID)
	assert.Empty(t, latest.Keys)

	err = repo.Record(ctx, &traffic.LedgerEntry{CycleID: "dc_AAAAAAAAAAAA"})
	assert.True(t, apperrors.IsIntegrityError(err))

	deleted, err := repo.DeleteOlderThan(ctx, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
