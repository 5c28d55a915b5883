package model

import (
	"time"
)

// MonthlyRevenue is a pre-aggregated revenue bucket keyed by (year, month).
// TotalRevenue and TotalTransactions are monotonic accumulators: the row is
// seeded on the first completed transaction of the month and only ever
// incremented afterwards, never recomputed from scratch.
type MonthlyRevenue struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Year              int       `gorm:"not null;uniqueIndex:idx_monthly_revenue_period" json:"year"`
	Month             int       `gorm:"not null;uniqueIndex:idx_monthly_revenue_period" json:"month"`
	TotalRevenue      float64   `gorm:"not null;default:0" json:"totalRevenue"`
	TotalTransactions int64     `gorm:"not null;default:0" json:"totalTransactions"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName specifies the table name for MonthlyRevenue
func (MonthlyRevenue) TableName() string {
	return "monthly_revenues"
}

// AverageOrderValue is derived on read, never stored incrementally
func (m *MonthlyRevenue) AverageOrderValue() float64 {
	if m.TotalTransactions == 0 {
		return 0
	}
	return m.TotalRevenue / float64(m.TotalTransactions)
}
