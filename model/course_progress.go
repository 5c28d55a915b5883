package model

import (
	"time"
)

// CourseProgress tracks one user's advancement through one course. The row is
// created at enrollment and mutated on every progress update. IsCompleted
// latches permanently true once Progress reaches 100.
type CourseProgress struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_course_progress_user_course" json:"userId"`
	CourseID          string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_course_progress_user_course" json:"courseId"`
	EnrollmentDate    time.Time  `gorm:"not null;index" json:"enrollmentDate"`
	CompletionDate    *time.Time `json:"completionDate,omitempty"`
	Progress          int        `gorm:"default:0" json:"progress"`  // 0-100
	TimeSpent         int        `gorm:"default:0" json:"timeSpent"` // cumulative seconds
	IsCompleted       bool       `gorm:"default:false;index" json:"isCompleted"`
	CertificateIssued bool       `gorm:"default:false" json:"certificateIssued"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for CourseProgress
func (CourseProgress) TableName() string {
	return "course_progress"
}

// ApplyUpdate folds a progress update into the record. Progress is clamped to
// 0-100 and completion latches on the first time 100 is reached.
func (p *CourseProgress) ApplyUpdate(progress int, timeSpent int, at time.Time) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > p.Progress {
		p.Progress = progress
	}
	p.TimeSpent += timeSpent
	if p.Progress >= 100 && !p.IsCompleted {
		p.IsCompleted = true
		p.CompletionDate = &at
	}
}
