package models

import (
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

// UserModel maps the traffic-related columns of the panel's user table.
// Timestamps are epoch seconds, as the panel stores them.
type UserModel struct {
	ID             uint   `gorm:"primarykey"`
	Email          string `gorm:"size:64;not null;uniqueIndex"`
	U              uint64 `gorm:"column:u;not null;default:0"`
	D              uint64 `gorm:"column:d;not null;default:0"`
	T              int64  `gorm:"column:t;not null;default:0;comment:last traffic time"`
	TransferEnable uint64 `gorm:"column:transfer_enable;not null;default:0"`
	InviteUserID   *uint  `gorm:"column:invite_user_id;index"`
	CreatedAt      int64  `gorm:"autoCreateTime;index"`
	UpdatedAt      int64  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUser
}
