package bootstrap

import (
	"context"
	"fmt"
	"time"

	statUsecases "github.com/orris-inc/trafficstat/internal/application/stat/usecases"
	trafficUsecases "github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/infrastructure/scheduler"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
)

// DrainJob runs one drain cycle. The use case logs its own outcome.
func DrainJob(uc trafficUsecases.DrainCountersExecutor) scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		_, err := uc.Execute(ctx)
		return err
	})
}

// RollupJob rolls up the day returned by day at run time. A report with a
// failed stage becomes an error so the runner logs and times it as failed.
func RollupJob(uc statUsecases.RollupExecutor, day func() time.Time) scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		report := uc.Execute(ctx, day())
		if !report.OK() {
			return fmt.Errorf("rollup incomplete: %s", report)
		}
		return nil
	})
}

// YesterdayFunc returns the previous business day relative to the wall clock.
func YesterdayFunc() time.Time {
	return statUsecases.Yesterday(biztime.NowUTC())
}

// CleanupJob trims rows past retention.
func CleanupJob(uc trafficUsecases.CleanupExecutor) scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		_, err := uc.Execute(ctx)
		return err
	})
}

// ResolveDay parses a --date flag value. Empty means the previous business day.
// biztime must be initialised.
func ResolveDay(date string) (time.Time, error) {
	if date == "" {
		return YesterdayFunc(), nil
	}
	return biztime.ParseDate(date)
}
