package traffic

import "context"

// LedgerEntry records a committed drain cycle. It is written in the same
// transaction as the account updates, so its presence proves the cycle's
// claims were applied.
type LedgerEntry struct {
	CycleID       string
	Users         int
	UploadTotal   uint64
	DownloadTotal uint64
	// Keys holds bytes per "<source>/<key>".
	Keys      map[string]uint64
	CreatedAt int64
}

// LedgerRepository persists drain ledger rows.
type LedgerRepository interface {
	Record(ctx context.Context, entry *LedgerEntry) error
	Exists(ctx context.Context, cycleID string) (bool, error)
	// Latest returns the most recent entry, or nil when none exist.
	Latest(ctx context.Context) (*LedgerEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
