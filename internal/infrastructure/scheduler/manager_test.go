package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/testutil"
)

func TestSchedulerManager(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	log := testutil.NewMockLogger()
	m, err := NewSchedulerManager(NewJobRunner(nil, time.Minute, nil, log), log)
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	drain := JobFunc(func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	noop := JobFunc(func(context.Context) error { return nil })

	require.NoError(t, m.RegisterDrainJob(drain, time.Hour, time.Second))
	require.NoError(t, m.RegisterRollupJob(noop, "10 0 * * *", time.Minute))
	require.NoError(t, m.RegisterCleanupJob(noop, "30 3 * * *", time.Minute))
	assert.Error(t, m.RegisterRollupJob(noop, "not a cron", time.Minute))

	names := map[string]bool{}
	for _, j := range m.Jobs() {
		names[j.Name()] = true
	}
	assert.Equal(t, map[string]bool{"traffic-drain": true, "stat-rollup": true, "retention-cleanup": true}, names)

	m.Start()
	assert.True(t, m.IsStarted())

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("drain job did not start immediately")
	}

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
}
