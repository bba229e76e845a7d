package stat

import (
	"context"
	"time"
)

// Accumulator keeps the running traffic totals of a business day until the
// rollup persists them. day is any instant inside that day.
type Accumulator interface {
	AddUser(ctx context.Context, day time.Time, rate float64, userID uint, upload, download uint64) error
	AddServer(ctx context.Context, day time.Time, serverID uint, serverType string, upload, download uint64) error
	Users(ctx context.Context, day time.Time) ([]UserUsage, error)
	Servers(ctx context.Context, day time.Time) ([]ServerUsage, error)
	ResetUsers(ctx context.Context, day time.Time) error
	ResetServers(ctx context.Context, day time.Time) error
}

// TrafficLogReader sums logged traffic over a period.
type TrafficLogReader interface {
	SumUsers(ctx context.Context, start, end int64) ([]UserUsage, error)
	SumServers(ctx context.Context, start, end int64) ([]ServerUsage, error)
}
