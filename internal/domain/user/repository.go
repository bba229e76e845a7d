package user

import "context"

// Repository defines the user operations the accounting pipeline needs.
type Repository interface {
	// FindByIDs loads every existing account among ids in one query.
	// Unknown ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uint) ([]*Account, error)

	// ApplyTrafficDelta adds upload/download to the stored counters and
	// stamps the last traffic time. It never overwrites the counters.
	ApplyTrafficDelta(ctx context.Context, id uint, upload, download uint64, at int64) error

	// CountRegistered counts accounts created in [start, end).
	CountRegistered(ctx context.Context, start, end int64) (int64, error)

	// CountInvited counts accounts created in [start, end) with an inviter.
	CountInvited(ctx context.Context, start, end int64) (int64, error)
}
