package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	appstat "github.com/orris-inc/trafficstat/internal/application/stat"
	"github.com/orris-inc/trafficstat/internal/domain/order"
	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// RollupMetrics receives per-stage outcomes.
type RollupMetrics interface {
	RollupStage(stage, result string)
}

type RollupExecutor interface {
	Execute(ctx context.Context, day time.Time) *RollupReport
}

// RollupReport lists the stage outcomes of one run in execution order.
type RollupReport struct {
	Window stat.Window
	Stages []stat.StageResult
}

// OK reports whether no stage failed.
func (r *RollupReport) OK() bool {
	for _, s := range r.Stages {
		if !s.OK() {
			return false
		}
	}
	return true
}

func (r *RollupReport) Stage(name string) (stat.StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return stat.StageResult{}, false
}

func (r *RollupReport) String() string {
	parts := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("%s %s", r.Window.Day(), strings.Join(parts, "; "))
}

// Yesterday returns the start of the business day before now.
func Yesterday(now time.Time) time.Time {
	return biztime.PreviousDayStartUTC(now)
}

// RollupUseCase persists a day's user, server and global statistics. Each
// stage is isolated: a failing stage is logged and the next one still runs.
type RollupUseCase struct {
	source  appstat.UsageSource
	orders  order.Repository
	users   user.Repository
	stats   stat.Repository
	metrics RollupMetrics
	logger  logger.Interface
}

func NewRollupUseCase(
	source appstat.UsageSource,
	orders order.Repository,
	users user.Repository,
	stats stat.Repository,
	m RollupMetrics,
	logger logger.Interface,
) *RollupUseCase {
	return &RollupUseCase{
		source:  source,
		orders:  orders,
		users:   users,
		stats:   stats,
		metrics: m,
		logger:  logger,
	}
}

// Execute rolls up the business day containing day.
func (uc *RollupUseCase) Execute(ctx context.Context, day time.Time) *RollupReport {
	window := stat.NewDayWindow(day)
	agg := appstat.NewAggregator(window, uc.source, uc.orders, uc.users, uc.stats, uc.logger)
	log := uc.logger.With("record_at", window.RecordAt(), "day", window.Day(), "source", uc.source.Name())

	log.Infow("starting statistics rollup")
	report := &RollupReport{Window: window}

	for _, run := range []struct {
		name string
		fn   func(context.Context, *appstat.Aggregator, logger.Interface) stat.StageResult
	}{
		{stat.StageUser, uc.userStage},
		{stat.StageServer, uc.serverStage},
		{stat.StageGlobal, uc.globalStage},
	} {
		res := uc.runStage(ctx, run.name, agg, log, run.fn)
		if res.OK() {
			log.Infow("rollup stage finished", "stage", res.Stage, "status", res.Status, "rows", res.Rows)
		} else {
			log.Errorw("rollup stage failed", "stage", res.Stage, "error", res.Err)
		}
		if uc.metrics != nil {
			uc.metrics.RollupStage(res.Stage, string(res.Status))
		}
		report.Stages = append(report.Stages, res)
	}

	log.Infow("statistics rollup finished", "ok", report.OK())
	return report
}

// runStage turns a panic inside a stage into a failed result.
func (uc *RollupUseCase) runStage(
	ctx context.Context,
	name string,
	agg *appstat.Aggregator,
	log logger.Interface,
	fn func(context.Context, *appstat.Aggregator, logger.Interface) stat.StageResult,
) (res stat.StageResult) {
	defer func() {
		if r := recover(); r != nil {
			res = stat.Failed(name, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn(ctx, agg, log)
}

func (uc *RollupUseCase) userStage(ctx context.Context, agg *appstat.Aggregator, log logger.Interface) stat.StageResult {
	rows, err := agg.ComputeUserStats(ctx)
	if err != nil {
		return stat.Failed(stat.StageUser, err)
	}
	if len(rows) == 0 {
		return stat.Skipped(stat.StageUser)
	}
	if err := uc.stats.InsertUserStats(ctx, rows); err != nil {
		return stat.Failed(stat.StageUser, err)
	}
	// The rows are already persisted; a stale accumulation only costs an
	// identical overwrite on the next run.
	if err := agg.ClearUserStats(ctx); err != nil {
		log.Warnw("failed to clear user usage after persisting", "error", err)
	}
	return stat.Succeeded(stat.StageUser, len(rows))
}

func (uc *RollupUseCase) serverStage(ctx context.Context, agg *appstat.Aggregator, log logger.Interface) stat.StageResult {
	rows, err := agg.ComputeServerStats(ctx)
	if err != nil {
		return stat.Failed(stat.StageServer, err)
	}
	if len(rows) == 0 {
		return stat.Skipped(stat.StageServer)
	}
	if err := uc.stats.InsertServerStats(ctx, rows); err != nil {
		return stat.Failed(stat.StageServer, err)
	}
	if err := agg.ClearServerStats(ctx); err != nil {
		log.Warnw("failed to clear server usage after persisting", "error", err)
	}
	return stat.Succeeded(stat.StageServer, len(rows))
}

func (uc *RollupUseCase) globalStage(ctx context.Context, agg *appstat.Aggregator, _ logger.Interface) stat.StageResult {
	g, err := agg.ComputeGlobalStats(ctx)
	if err != nil {
		return stat.Failed(stat.StageGlobal, err)
	}
	if err := uc.stats.UpsertGlobal(ctx, g); err != nil {
		return stat.Failed(stat.StageGlobal, err)
	}
	return stat.Succeeded(stat.StageGlobal, 1)
}
