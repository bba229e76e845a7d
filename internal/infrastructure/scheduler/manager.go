// Package scheduler runs the drain, rollup and cleanup jobs with gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/constants"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// SchedulerManager owns the gocron scheduler of the worker process. Cron
// expressions are evaluated in the business timezone.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	runner    *JobRunner
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(runner *JobRunner, log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		runner:    runner,
		logger:    log,
	}, nil
}

// task builds the gocron task body. Errors are logged by the runner and
// never reach gocron.
func (m *SchedulerManager) task(name, lockName string, job Job, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := m.runner.Run(ctx, name, lockName, job); err != nil && !errors.Is(err, ErrJobLocked) {
			m.logger.Debugw("scheduled job returned error", "job", name, "error", err)
		}
	}
}

// RegisterDrainJob runs the drain every interval, starting immediately. Runs
// never overlap: a slow run pushes the next one back.
func (m *SchedulerManager) RegisterDrainJob(job Job, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.task(constants.JobDrain, constants.LockDrain, job, timeout)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("traffic", "drain"),
		gocron.WithName("traffic-drain"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered drain job", "interval", interval.String(), "timeout", timeout.String())
	return nil
}

// RegisterRollupJob runs the daily statistics rollup on cron.
func (m *SchedulerManager) RegisterRollupJob(job Job, cron string, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(m.task(constants.JobRollup, constants.LockRollup, job, timeout)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("stat", "rollup"),
		gocron.WithName("stat-rollup"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered rollup job", "cron", cron, "timeout", timeout.String())
	return nil
}

// RegisterCleanupJob trims traffic logs and the drain ledger on cron.
func (m *SchedulerManager) RegisterCleanupJob(job Job, cron string, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(m.task(constants.JobCleanup, constants.LockCleanup, job, timeout)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("retention", "cleanup"),
		gocron.WithName("retention-cleanup"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered cleanup job", "cron", cron)
	return nil
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
