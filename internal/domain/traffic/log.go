package traffic

import (
	"context"
	"fmt"
)

// LogEntry is one node report for one user, kept for batch statistics.
// Upload and Download are raw bytes before the server rate is applied.
type LogEntry struct {
	UserID     uint
	ServerID   uint
	ServerType string
	ServerRate float64
	Upload     uint64
	Download   uint64
	LogAt      int64
}

func (e *LogEntry) Validate() error {
	if e.UserID == 0 {
		return fmt.Errorf("user ID is required")
	}
	if e.ServerID == 0 {
		return fmt.Errorf("server ID is required")
	}
	if e.ServerType == "" {
		return fmt.Errorf("server type is required")
	}
	if !(e.ServerRate > 0) {
		return fmt.Errorf("server rate must be positive, got %v", e.ServerRate)
	}
	return nil
}

// LogWriter appends and trims traffic log rows.
type LogWriter interface {
	Append(ctx context.Context, entries []*LogEntry) error
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
