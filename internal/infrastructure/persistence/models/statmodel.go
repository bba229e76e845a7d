package models

import (
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

// StatUserModel is a per-user rollup row.
type StatUserModel struct {
	ID         uint    `gorm:"primarykey"`
	UserID     uint    `gorm:"not null;uniqueIndex:uk_stat_user_period,priority:1"`
	ServerRate float64 `gorm:"type:decimal(10,2);not null;uniqueIndex:uk_stat_user_period,priority:2"`
	U          uint64  `gorm:"column:u;not null;default:0"`
	D          uint64  `gorm:"column:d;not null;default:0"`
	RecordType string  `gorm:"size:2;not null;uniqueIndex:uk_stat_user_period,priority:4"`
	RecordAt   int64   `gorm:"not null;uniqueIndex:uk_stat_user_period,priority:3;index"`
	CreatedAt  int64   `gorm:"autoCreateTime"`
	UpdatedAt  int64   `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (StatUserModel) TableName() string {
	return constants.TableStatUser
}

// StatServerModel is a per-server rollup row.
type StatServerModel struct {
	ID         uint   `gorm:"primarykey"`
	ServerID   uint   `gorm:"not null;uniqueIndex:uk_stat_server_period,priority:1"`
	ServerType string `gorm:"size:16;not null;uniqueIndex:uk_stat_server_period,priority:2"`
	U          uint64 `gorm:"column:u;not null;default:0"`
	D          uint64 `gorm:"column:d;not null;default:0"`
	RecordType string `gorm:"size:2;not null;uniqueIndex:uk_stat_server_period,priority:4"`
	RecordAt   int64  `gorm:"not null;uniqueIndex:uk_stat_server_period,priority:3;index"`
	CreatedAt  int64  `gorm:"autoCreateTime"`
	UpdatedAt  int64  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (StatServerModel) TableName() string {
	return constants.TableStatServer
}

// StatModel is the global summary row of a period.
type StatModel struct {
	ID                uint   `gorm:"primarykey"`
	RecordAt          int64  `gorm:"not null;uniqueIndex:uk_stat_period,priority:1"`
	RecordType        string `gorm:"size:2;not null;uniqueIndex:uk_stat_period,priority:2"`
	OrderCount        int64  `gorm:"not null;default:0"`
	OrderTotal        int64  `gorm:"not null;default:0"`
	CommissionCount   int64  `gorm:"not null;default:0"`
	CommissionTotal   int64  `gorm:"not null;default:0"`
	PaidCount         int64  `gorm:"not null;default:0"`
	PaidTotal         int64  `gorm:"not null;default:0"`
	RegisterCount     int64  `gorm:"not null;default:0"`
	InviteCount       int64  `gorm:"not null;default:0"`
	TransferUsedTotal uint64 `gorm:"not null;default:0"`
	CreatedAt         int64  `gorm:"autoCreateTime"`
	UpdatedAt         int64  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (StatModel) TableName() string {
	return constants.TableStat
}
