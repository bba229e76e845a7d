package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.DrainCycle(ResultSuccess)
	m.DrainCycle(ResultSuccess)
	m.DrainCycle(ResultEmpty)
	m.DrainedBytes("upload", 1024)
	m.DrainedBytes("upload", 0)
	m.DrainUsers(OutcomeUnknown, 2)
	m.RollupStage("user", ResultFailed)
	m.ObserveJob("drain", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.drainCycles.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drainCycles.WithLabelValues(ResultEmpty)))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.drainedBytes.WithLabelValues("upload")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.drainUsers.WithLabelValues(OutcomeUnknown)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollupStages.WithLabelValues("user", ResultFailed)))

	n, err := testutil.GatherAndCount(reg, "trafficstat_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DrainCycle(ResultSuccess)
		m.DrainedBytes("download", 5)
		m.DrainUsers(OutcomeApplied, 1)
		m.RollupStage("global", ResultSuccess)
		m.ObserveJob("rollup", time.Now())
	})
}
