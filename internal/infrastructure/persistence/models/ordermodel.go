package models

import (
	"github.com/orris-inc/trafficstat/internal/shared/constants"
)

// OrderModel is the read side of the panel's order table.
type OrderModel struct {
	ID          uint   `gorm:"primarykey"`
	UserID      uint   `gorm:"not null;index"`
	TradeNo     string `gorm:"size:36;not null;uniqueIndex"`
	TotalAmount int64  `gorm:"not null;default:0;comment:cents"`
	Status      int    `gorm:"not null;default:0;comment:0 pending 1 processing 2 cancelled 3 completed 4 discounted"`
	PaidAt      *int64 `gorm:"index"`
	CreatedAt   int64  `gorm:"autoCreateTime;index"`
	UpdatedAt   int64  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (OrderModel) TableName() string {
	return constants.TableOrder
}

// CommissionLogModel records an inviter's commission for one order.
type CommissionLogModel struct {
	ID           uint   `gorm:"primarykey"`
	InviteUserID uint   `gorm:"not null;index"`
	UserID       uint   `gorm:"not null"`
	TradeNo      string `gorm:"size:36;not null"`
	OrderAmount  int64  `gorm:"not null;default:0"`
	GetAmount    int64  `gorm:"not null;default:0"`
	CreatedAt    int64  `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (CommissionLogModel) TableName() string {
	return constants.TableCommissionLog
}
