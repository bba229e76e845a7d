package db

import (
	"gorm.io/gorm"
)

// InWindow is a GORM scope restricting an epoch-second column to [start, end).
//
// Example usage:
//
//	db.Model(&models.OrderModel{}).Scopes(db.InWindow("created_at", start, end)).Count(&n)
func InWindow(column string, start, end int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" >= ? AND "+column+" < ?", start, end)
	}
}

// OlderThan is a GORM scope selecting rows whose epoch-second column is before cutoff.
func OlderThan(column string, cutoff int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" < ?", cutoff)
	}
}
