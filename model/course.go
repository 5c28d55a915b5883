package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a catalog entry for a continuing-education course.
// Analytics events reference courses by Slug, the stable external identifier.
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Slug          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Category      string         `gorm:"type:varchar(50);index" json:"category"`
	PriceCents    int64          `gorm:"default:0" json:"priceCents"`
	Currency      string         `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	DurationHours int            `gorm:"default:0" json:"durationHours"`
	Published     bool           `gorm:"default:false;index" json:"published"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}
