// Package metrics holds the prometheus collectors for drain, rollup and
// cleanup runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trafficstat"

// Label values.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultEmpty   = "empty"
	ResultSkipped = "skipped"

	OutcomeApplied = "applied"
	OutcomeUnknown = "unknown"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	drainCycles  *prometheus.CounterVec
	drainedBytes *prometheus.CounterVec
	drainUsers   *prometheus.CounterVec
	rollupStages *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		drainCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_cycles_total",
			Help:      "Drain cycles by result.",
		}, []string{"result"}),
		drainedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drained_bytes_total",
			Help:      "Bytes applied to user rows by direction.",
		}, []string{"direction"}),
		drainUsers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_users_total",
			Help:      "Users seen by drain cycles, applied or unknown.",
		}, []string{"outcome"}),
		rollupStages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollup_stages_total",
			Help:      "Rollup stage runs by stage and result.",
		}, []string{"stage", "result"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"job"}),
	}
}

func (m *Metrics) DrainCycle(result string) {
	if m == nil {
		return
	}
	m.drainCycles.WithLabelValues(result).Inc()
}

func (m *Metrics) DrainedBytes(direction string, n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.drainedBytes.WithLabelValues(direction).Add(float64(n))
}

func (m *Metrics) DrainUsers(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.drainUsers.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) RollupStage(stage, result string) {
	if m == nil {
		return
	}
	m.rollupStages.WithLabelValues(stage, result).Inc()
}

// ObserveJob records how long job ran since start.
func (m *Metrics) ObserveJob(job string, start time.Time) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
