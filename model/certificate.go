package model

import (
	"time"
)

// Certificate records a completion certificate issued for a (user, course)
// pair. The rendered artifact lives in object storage under StorageKey.
type Certificate struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_certificate_user_course" json:"userId"`
	CourseID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_certificate_user_course" json:"courseId"`
	SerialNumber string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"serialNumber"`
	StorageKey   string    `gorm:"type:varchar(255)" json:"-"`
	StorageURL   string    `gorm:"type:text" json:"url,omitempty"`
	IssuedAt     time.Time `gorm:"not null" json:"issuedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Certificate
func (Certificate) TableName() string {
	return "certificates"
}
