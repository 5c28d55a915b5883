package model

import (
	"time"

	"gorm.io/datatypes"
)

// InteractionType represents the kind of course interaction event
type InteractionType string

const (
	InteractionTypeVideoPlay           InteractionType = "video_play"
	InteractionTypeVideoPause          InteractionType = "video_pause"
	InteractionTypeQuizStart           InteractionType = "quiz_start"
	InteractionTypeQuizComplete        InteractionType = "quiz_complete"
	InteractionTypeCourseAccess        InteractionType = "course_access"
	InteractionTypeCourseEnrollment    InteractionType = "course_enrollment"
	InteractionTypeCourseCompletion    InteractionType = "course_completion"
	InteractionTypeCertificateDownload InteractionType = "certificate_download"
	InteractionTypeRevenueTransaction  InteractionType = "revenue_transaction"
	InteractionTypeCourseProgress      InteractionType = "course_progress"
)

// ValidInteractionType reports whether t is one of the known interaction kinds
func ValidInteractionType(t InteractionType) bool {
	switch t {
	case InteractionTypeVideoPlay, InteractionTypeVideoPause,
		InteractionTypeQuizStart, InteractionTypeQuizComplete,
		InteractionTypeCourseAccess, InteractionTypeCourseEnrollment,
		InteractionTypeCourseCompletion, InteractionTypeCertificateDownload,
		InteractionTypeRevenueTransaction, InteractionTypeCourseProgress:
		return true
	}
	return false
}

// CourseInteraction is an append-only event in the interaction log. Rows are
// never mutated after write.
type CourseInteraction struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          string            `gorm:"type:varchar(64);not null;index" json:"userId"`
	CourseID        string            `gorm:"type:varchar(64);not null;index" json:"courseId"`
	InteractionType InteractionType   `gorm:"type:varchar(30);not null;index" json:"interactionType"`
	Timestamp       time.Time         `gorm:"not null;index" json:"timestamp"`
	Duration        *int              `json:"duration,omitempty"` // seconds
	Progress        *int              `json:"progress,omitempty"` // 0-100
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// TableName specifies the table name for CourseInteraction
func (CourseInteraction) TableName() string {
	return "course_interactions"
}
