package stat

import "github.com/orris-inc/trafficstat/internal/shared/utils"

// UserUsage is traffic attributed to one user at one rate multiplier.
type UserUsage struct {
	UserID     uint
	ServerRate float64
	Upload     uint64
	Download   uint64
}

// ServerUsage is raw traffic handled by one server.
type ServerUsage struct {
	ServerID   uint
	ServerType string
	Upload     uint64
	Download   uint64
}

// UserStat is a persisted per-user rollup row.
type UserStat struct {
	UserID     uint
	ServerRate float64
	Upload     uint64
	Download   uint64
	RecordType Granularity
	RecordAt   int64
}

// Total returns upload plus download.
func (s *UserStat) Total() uint64 {
	return utils.SaturatingAdd(s.Upload, s.Download)
}

// ServerStat is a persisted per-server rollup row.
type ServerStat struct {
	ServerID   uint
	ServerType string
	Upload     uint64
	Download   uint64
	RecordType Granularity
	RecordAt   int64
}

// GlobalStat is the single business summary row of a period. Money amounts
// are in cents.
type GlobalStat struct {
	RecordAt          int64
	RecordType        Granularity
	OrderCount        int64
	OrderTotal        int64
	CommissionCount   int64
	CommissionTotal   int64
	PaidCount         int64
	PaidTotal         int64
	RegisterCount     int64
	InviteCount       int64
	TransferUsedTotal uint64
}

// NewGlobalStat returns an all-zero summary for w.
func NewGlobalStat(w Window) *GlobalStat {
	return &GlobalStat{RecordAt: w.RecordAt(), RecordType: w.Granularity}
}

// IsZero reports whether the summary records no activity.
func (g *GlobalStat) IsZero() bool {
	return g.OrderCount == 0 && g.OrderTotal == 0 &&
		g.CommissionCount == 0 && g.CommissionTotal == 0 &&
		g.PaidCount == 0 && g.PaidTotal == 0 &&
		g.RegisterCount == 0 && g.InviteCount == 0 &&
		g.TransferUsedTotal == 0
}
