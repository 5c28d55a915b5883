package model

import (
	"time"
)

// DailyRollup is the persisted output of the generate-daily operation: the
// totals for a single calendar day. One row per date, overwritten when the
// rollup for that day is regenerated.
type DailyRollup struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Date              time.Time `gorm:"type:date;not null;uniqueIndex" json:"date"`
	TotalRevenue      float64   `gorm:"default:0" json:"totalRevenue"`
	TotalTransactions int64     `gorm:"default:0" json:"totalTransactions"`
	TotalSessions     int64     `gorm:"default:0" json:"totalSessions"`
	ActiveUsers       int64     `gorm:"default:0" json:"activeUsers"`
	TotalEnrollments  int64     `gorm:"default:0" json:"totalEnrollments"`
	TotalCompletions  int64     `gorm:"default:0" json:"totalCompletions"`
	GeneratedAt       time.Time `json:"generatedAt"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName specifies the table name for DailyRollup
func (DailyRollup) TableName() string {
	return "daily_rollups"
}
