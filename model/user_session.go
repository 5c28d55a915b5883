package model

import (
	"time"
)

// DeviceType classifies the client device for a session
type DeviceType string

const (
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
)

// UserSession represents one browsing session as observed by the client
// tracker. A row is created at session start and mutated exactly once at
// session end, when Duration is computed as end - start. Never deleted.
type UserSession struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string     `gorm:"type:varchar(64);not null;index" json:"userId"`
	SessionStart    time.Time  `gorm:"not null;index" json:"sessionStart"`
	SessionEnd      *time.Time `json:"sessionEnd,omitempty"`
	Duration        int        `gorm:"default:0" json:"duration"` // seconds, set at session end
	PageViews       int        `gorm:"default:0" json:"pageViews"`
	CoursesAccessed int        `gorm:"default:0" json:"coursesAccessed"`
	DeviceType      DeviceType `gorm:"type:varchar(20)" json:"deviceType,omitempty"`
	Browser         string     `gorm:"type:varchar(50)" json:"browser,omitempty"`
	Location        string     `gorm:"type:varchar(100)" json:"location,omitempty"`
	Referrer        string     `gorm:"type:text" json:"referrer,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for UserSession
func (UserSession) TableName() string {
	return "user_sessions"
}

// Ended reports whether the session was properly closed. Sessions that never
// ended still count toward session totals but carry a zero duration.
func (s *UserSession) Ended() bool {
	return s.SessionEnd != nil
}
