package models

import (
	"gorm.io/datatypes"

	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

// TrafficLogModel is one node report for one user. U and D are raw bytes.
type TrafficLogModel struct {
	ID         uint    `gorm:"primarykey"`
	UserID     uint    `gorm:"not null;index"`
	ServerID   uint    `gorm:"not null"`
	ServerType string  `gorm:"size:16;not null"`
	ServerRate float64 `gorm:"type:decimal(10,2);not null"`
	U          uint64  `gorm:"column:u;not null;default:0"`
	D          uint64  `gorm:"column:d;not null;default:0"`
	LogAt      int64   `gorm:"not null;index"`
}

// TableName specifies the table name for GORM
func (TrafficLogModel) TableName() string {
	return constants.TableTrafficLog
}

// DrainLedgerModel marks a committed drain cycle.
type DrainLedgerModel struct {
	ID            uint                                  `gorm:"primarykey"`
	CycleID       string                                `gorm:"size:32;not null;uniqueIndex"`
	Users         int                                   `gorm:"not null;default:0"`
	UploadTotal   uint64                                `gorm:"not null;default:0"`
	DownloadTotal uint64                                `gorm:"not null;default:0"`
	Keys          datatypes.JSONType[map[string]uint64] `gorm:"comment:bytes per source/key"`
	CreatedAt     int64                                 `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (DrainLedgerModel) TableName() string {
	return constants.TableDrainLedger
}
