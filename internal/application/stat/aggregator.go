package stat

import (
	"context"
	"fmt"

	"github.com/orris-inc/trafficstat/internal/domain/order"
	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// Aggregator computes the statistics of one window. It never writes rows;
// the rollup persists what it returns.
type Aggregator struct {
	window stat.Window
	source UsageSource
	orders order.Repository
	users  user.Repository
	stats  stat.Repository
	logger logger.Interface
}

func NewAggregator(
	window stat.Window,
	source UsageSource,
	orders order.Repository,
	users user.Repository,
	stats stat.Repository,
	logger logger.Interface,
) *Aggregator {
	return &Aggregator{
		window: window,
		source: source,
		orders: orders,
		users:  users,
		stats:  stats,
		logger: logger,
	}
}

func (a *Aggregator) Window() stat.Window {
	return a.window
}

// ComputeUserStats returns one row per (user, rate) with traffic in the
// window, ordered by user id.
func (a *Aggregator) ComputeUserStats(ctx context.Context) ([]*stat.UserStat, error) {
	usage, err := a.source.Users(ctx, a.window)
	if err != nil {
		return nil, fmt.Errorf("failed to read user usage from %s source: %w", a.source.Name(), err)
	}
	sortUserUsage(usage)

	rows := make([]*stat.UserStat, 0, len(usage))
	for _, u := range usage {
		if u.Upload == 0 && u.Download == 0 {
			continue
		}
		rows = append(rows, &stat.UserStat{
			UserID:     u.UserID,
			ServerRate: u.ServerRate,
			Upload:     u.Upload,
			Download:   u.Download,
			RecordType: a.window.Granularity,
			RecordAt:   a.window.RecordAt(),
		})
	}
	return rows, nil
}

// ComputeServerStats returns one row per (server, type) with traffic in the
// window.
func (a *Aggregator) ComputeServerStats(ctx context.Context) ([]*stat.ServerStat, error) {
	usage, err := a.source.Servers(ctx, a.window)
	if err != nil {
		return nil, fmt.Errorf("failed to read server usage from %s source: %w", a.source.Name(), err)
	}
	sortServerUsage(usage)

	rows := make([]*stat.ServerStat, 0, len(usage))
	for _, s := range usage {
		if s.Upload == 0 && s.Download == 0 {
			continue
		}
		rows = append(rows, &stat.ServerStat{
			ServerID:   s.ServerID,
			ServerType: s.ServerType,
			Upload:     s.Upload,
			Download:   s.Download,
			RecordType: a.window.Granularity,
			RecordAt:   a.window.RecordAt(),
		})
	}
	return rows, nil
}

// ComputeGlobalStats summarises orders, commissions, registrations and
// transfer for the window. A quiet window yields a zero-valued summary.
func (a *Aggregator) ComputeGlobalStats(ctx context.Context) (*stat.GlobalStat, error) {
	start, end := a.window.Bounds()
	g := stat.NewGlobalStat(a.window)

	created, err := a.orders.SumCreated(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum orders: %w", err)
	}
	g.OrderCount, g.OrderTotal = created.Count, created.Total

	paid, err := a.orders.SumPaid(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid orders: %w", err)
	}
	g.PaidCount, g.PaidTotal = paid.Count, paid.Total

	commission, err := a.orders.SumCommission(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}
	g.CommissionCount, g.CommissionTotal = commission.Count, commission.Total

	if g.RegisterCount, err = a.users.CountRegistered(ctx, start, end); err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if g.InviteCount, err = a.users.CountInvited(ctx, start, end); err != nil {
		return nil, fmt.Errorf("failed to count invited registrations: %w", err)
	}

	if g.TransferUsedTotal, err = a.transferUsed(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// transferUsed prefers the persisted user rows of the period and falls back
// to the usage source before they exist.
func (a *Aggregator) transferUsed(ctx context.Context) (uint64, error) {
	total, rows, err := a.stats.SumUserTransfer(ctx, a.window.RecordAt(), a.window.Granularity)
	if err != nil {
		return 0, fmt.Errorf("failed to sum persisted user transfer: %w", err)
	}
	if rows > 0 {
		return total, nil
	}

	usage, err := a.source.Users(ctx, a.window)
	if err != nil {
		return 0, fmt.Errorf("failed to read user usage from %s source: %w", a.source.Name(), err)
	}
	total = 0
	for _, u := range usage {
		total = utils.SaturatingAdd(total, utils.SaturatingAdd(u.Upload, u.Download))
	}
	return total, nil
}

// ClearUserStats resets the source's user state for the window.
func (a *Aggregator) ClearUserStats(ctx context.Context) error {
	if err := a.source.ClearUsers(ctx, a.window); err != nil {
		return fmt.Errorf("failed to clear user usage: %w", err)
	}
	return nil
}

// ClearServerStats resets the source's server state for the window.
func (a *Aggregator) ClearServerStats(ctx context.Context) error {
	if err := a.source.ClearServers(ctx, a.window); err != nil {
		return fmt.Errorf("failed to clear server usage: %w", err)
	}
	return nil
}
