package stat

import (
	"context"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
)

// Usage source names, as configured under stats.source.
const (
	SourceLive = "live"
	SourceLog  = "log"
)

// UsageSource supplies per-user and per-server traffic for a window. The
// live and log sources return the same shapes so the aggregator does not
// care which one backs it.
type UsageSource interface {
	Name() string
	Users(ctx context.Context, w stat.Window) ([]stat.UserUsage, error)
	Servers(ctx context.Context, w stat.Window) ([]stat.ServerUsage, error)
	// ClearUsers drops working state once user rows are persisted.
	ClearUsers(ctx context.Context, w stat.Window) error
	ClearServers(ctx context.Context, w stat.Window) error
}

// LiveUsageSource reads the running accumulation the drain and report paths
// feed during the day.
type LiveUsageSource struct {
	acc stat.Accumulator
}

func NewLiveUsageSource(acc stat.Accumulator) *LiveUsageSource {
	return &LiveUsageSource{acc: acc}
}

func (s *LiveUsageSource) Name() string { return SourceLive }

func (s *LiveUsageSource) Users(ctx context.Context, w stat.Window) ([]stat.UserUsage, error) {
	return s.acc.Users(ctx, w.Start)
}

func (s *LiveUsageSource) Servers(ctx context.Context, w stat.Window) ([]stat.ServerUsage, error) {
	return s.acc.Servers(ctx, w.Start)
}

func (s *LiveUsageSource) ClearUsers(ctx context.Context, w stat.Window) error {
	return s.acc.ResetUsers(ctx, w.Start)
}

func (s *LiveUsageSource) ClearServers(ctx context.Context, w stat.Window) error {
	return s.acc.ResetServers(ctx, w.Start)
}

// LogUsageSource sums the traffic log table over the window. The log is
// trimmed by retention, not by the rollup, so clearing is a no-op.
type LogUsageSource struct {
	reader stat.TrafficLogReader
}

func NewLogUsageSource(reader stat.TrafficLogReader) *LogUsageSource {
	return &LogUsageSource{reader: reader}
}

func (s *LogUsageSource) Name() string { return SourceLog }

func (s *LogUsageSource) Users(ctx context.Context, w stat.Window) ([]stat.UserUsage, error) {
	start, end := w.Bounds()
	return s.reader.SumUsers(ctx, start, end)
}

func (s *LogUsageSource) Servers(ctx context.Context, w stat.Window) ([]stat.ServerUsage, error) {
	start, end := w.Bounds()
	return s.reader.SumServers(ctx, start, end)
}

func (s *LogUsageSource) ClearUsers(context.Context, stat.Window) error { return nil }

func (s *LogUsageSource) ClearServers(context.Context, stat.Window) error { return nil }
