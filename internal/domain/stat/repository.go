package stat

import "context"

// Repository persists rollup rows. Re-running a period overwrites its rows.
type Repository interface {
	// UpsertGlobal updates the row for (RecordAt, RecordType) in place, or
	// inserts it when missing.
	UpsertGlobal(ctx context.Context, g *GlobalStat) error

	// InsertUserStats writes all rows or none.
	InsertUserStats(ctx context.Context, rows []*UserStat) error

	// InsertServerStats writes all rows or none.
	InsertServerStats(ctx context.Context, rows []*ServerStat) error

	// SumUserTransfer sums upload+download of the persisted user rows of a period.
	SumUserTransfer(ctx context.Context, recordAt int64, granularity Granularity) (total uint64, rows int64, err error)

	FindGlobal(ctx context.Context, recordAt int64, granularity Granularity) (*GlobalStat, error)
	ListUserStats(ctx context.Context, recordAt int64, granularity Granularity) ([]*UserStat, error)
	ListServerStats(ctx context.Context, recordAt int64, granularity Granularity) ([]*ServerStat, error)
}
