package usecases

import "context"

// DrainMetrics receives drain cycle outcomes.
type DrainMetrics interface {
	DrainCycle(result string)
	DrainedBytes(direction string, n uint64)
	DrainUsers(outcome string, n int)
}

type DrainCountersExecutor interface {
	Execute(ctx context.Context) (*DrainResult, error)
}

type ReportTrafficExecutor interface {
	Execute(ctx context.Context, cmd ReportTrafficCommand) (*ReportTrafficResult, error)
}

type CleanupExecutor interface {
	Execute(ctx context.Context) (*CleanupResult, error)
}
