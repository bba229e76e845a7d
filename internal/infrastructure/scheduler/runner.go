package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/orris-inc/trafficstat/internal/shared/goroutine"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// ErrJobLocked is returned when another process holds the job's lock.
var ErrJobLocked = errors.New("job is already running elsewhere")

// Job is one unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Locker guards a job across processes.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// JobMetrics receives job timings.
type JobMetrics interface {
	ObserveJob(job string, start time.Time)
}

// JobRunner wraps every job run, scheduled or one-shot: the Go memory limit
// is lifted for the run, a cross-process lock is taken when configured and
// panics become errors.
type JobRunner struct {
	locker  Locker
	lockTTL time.Duration
	metrics JobMetrics
	logger  logger.Interface
}

// NewJobRunner creates a runner. locker and m may be nil.
func NewJobRunner(locker Locker, lockTTL time.Duration, m JobMetrics, log logger.Interface) *JobRunner {
	return &JobRunner{
		locker:  locker,
		lockTTL: lockTTL,
		metrics: m,
		logger:  log,
	}
}

// Run executes job under lockName. An empty lockName skips locking.
func (r *JobRunner) Run(ctx context.Context, name, lockName string, job Job) error {
	log := r.logger.With("job", name)

	if r.locker != nil && lockName != "" {
		release, acquired, err := r.locker.TryLock(ctx, lockName, r.lockTTL)
		if err != nil {
			log.Errorw("failed to acquire job lock", "lock", lockName, "error", err)
			return fmt.Errorf("failed to acquire lock for %s: %w", name, err)
		}
		if !acquired {
			log.Infow("job already running elsewhere, skipping", "lock", lockName)
			return ErrJobLocked
		}
		defer func() {
			// The run's own context may be done by now.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				log.Warnw("failed to release job lock", "lock", lockName, "error", err)
			}
		}()
	}

	restore := liftMemoryLimit()
	defer restore()

	start := time.Now()
	if r.metrics != nil {
		defer r.metrics.ObserveJob(name, start)
	}

	err := goroutine.RunSafe(log, name, func() error {
		return job.Run(ctx)
	})
	if err != nil {
		log.Errorw("job failed", "error", err, "duration", time.Since(start))
		return err
	}
	log.Debugw("job finished", "duration", time.Since(start))
	return nil
}

var (
	memLimitMu    sync.Mutex
	memLimitUsers int
	memLimitSaved int64
)

// liftMemoryLimit disables the soft memory limit until the last concurrent
// caller restores it.
func liftMemoryLimit() (restore func()) {
	memLimitMu.Lock()
	if memLimitUsers == 0 {
		memLimitSaved = debug.SetMemoryLimit(math.MaxInt64)
	}
	memLimitUsers++
	memLimitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			memLimitMu.Lock()
			defer memLimitMu.Unlock()
			memLimitUsers--
			if memLimitUsers == 0 {
				debug.SetMemoryLimit(memLimitSaved)
			}
		})
	}
}
