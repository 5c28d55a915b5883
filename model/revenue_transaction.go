package model

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionStatus represents the lifecycle state of a revenue transaction
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// RevenueTransaction represents a single payment event recorded for analytics.
// Rows are immutable once written except for status transitions
// (e.g. completed -> refunded).
type RevenueTransaction struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          string            `gorm:"type:varchar(64);not null;index" json:"userId"`
	CourseID        string            `gorm:"type:varchar(64);not null;index" json:"courseId"`
	Amount          float64           `gorm:"not null" json:"amount"`
	Currency        string            `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	PaymentMethod   string            `gorm:"type:varchar(50)" json:"paymentMethod,omitempty"`
	StripeSessionID string            `gorm:"type:varchar(100);index" json:"stripeSessionId,omitempty"`
	Status          TransactionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	RefundedAt      *time.Time        `json:"refundedAt,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TableName specifies the table name for RevenueTransaction
func (RevenueTransaction) TableName() string {
	return "revenue_transactions"
}

// BucketTime returns the timestamp used to place the transaction into a
// monthly revenue bucket: completion time when present, creation time otherwise.
func (t *RevenueTransaction) BucketTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.CreatedAt
}

// MarkRefunded flips a completed transaction to refunded
func (t *RevenueTransaction) MarkRefunded(at time.Time) {
	t.Status = TransactionStatusRefunded
	t.RefundedAt = &at
}
