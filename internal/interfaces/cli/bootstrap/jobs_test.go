package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statUsecases "github.com/orris-inc/trafficstat/internal/application/stat/usecases"
	trafficUsecases "github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/domain/stat"
)

type fakeDrain struct {
	calls int
	err   error
}

func (f *fakeDrain) Execute(context.Context) (*trafficUsecases.DrainResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &trafficUsecases.DrainResult{Empty: true}, nil
}

type fakeRollup struct {
	day    time.Time
	stages []stat.StageResult
}

func (f *fakeRollup) Execute(_ context.Context, day time.Time) *statUsecases.RollupReport {
	f.day = day
	return &statUsecases.RollupReport{Window: stat.NewDayWindow(day), Stages: f.stages}
}

type fakeCleanup struct {
	err error
}

func (f *fakeCleanup) Execute(context.Context) (*trafficUsecases.CleanupResult, error) {
	return &trafficUsecases.CleanupResult{}, f.err
}

func TestDrainJob(t *testing.T) {
	uc := &fakeDrain{}
	require.NoError(t, DrainJob(uc).Run(context.Background()))
	assert.Equal(t, 1, uc.calls)

	uc.err = errors.New("redis down")
	assert.ErrorIs(t, DrainJob(uc).Run(context.Background()), uc.err)
}

func TestRollupJob(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	uc := &fakeRollup{stages: []stat.StageResult{stat.Succeeded(stat.StageUser, 2)}}

	require.NoError(t, RollupJob(uc, func() time.Time { return day }).Run(context.Background()))
	assert.Equal(t, day, uc.day)

	uc.stages = append(uc.stages, stat.Failed(stat.StageServer, errors.New("boom")))
	err := RollupJob(uc, func() time.Time { return day }).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollup incomplete")
}

func TestCleanupJob(t *testing.T) {
	require.NoError(t, CleanupJob(&fakeCleanup{}).Run(context.Background()))

	boom := errors.New("boom")
	assert.ErrorIs(t, CleanupJob(&fakeCleanup{err: boom}).Run(context.Background()), boom)
}

func TestResolveDay(t *testing.T) {
	day, err := ResolveDay("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", stat.NewDayWindow(day).Day())

	_, err = ResolveDay("03/01/2025")
	assert.Error(t, err)

	day, err = ResolveDay("")
	require.NoError(t, err)
	assert.True(t, day.Before(time.Now()))
}
