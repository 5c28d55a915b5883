package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/api/model"
	"gorm.io/datatypes"
)

var (
	// ErrSessionNotFound is returned when ending a session that was never started
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInteractionType is returned for interaction types outside the known set
	ErrInvalidInteractionType = errors.New("invalid interaction type")

	// ErrTransactionNotFound is returned when refunding an unknown transaction
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TrackingService is the write side of the analytics pipeline: append-only
// event recorders for revenue transactions, user sessions, course progress and
// course interactions. Every record gets a server-assigned creation timestamp
// and a generated identifier. Failures propagate to the caller unretried;
// the client-side tracker treats them as best-effort and never blocks a
// user-facing action on them.
type TrackingService struct {
	store AnalyticsStore
	now   func() time.Time
}

// NewTrackingService creates a new tracking service
func NewTrackingService(store AnalyticsStore) *TrackingService {
	return &TrackingService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RevenueInput is the payload for recording a revenue transaction
type RevenueInput struct {
	UserID          string
	CourseID        string
	Amount          float64
	Currency        string
	PaymentMethod   string
	StripeSessionID string
	Status          model.TransactionStatus
	CompletedAt     *time.Time
	Metadata        map[string]interface{}
}

// TrackRevenue records a revenue transaction. A completed transaction also
// feeds the monthly revenue bucket and writes a matching revenue_transaction
// interaction with the same amount and course, keeping the two event streams
// consistent at the call site (there is no foreign-key enforcement between
// them).
func (s *TrackingService) TrackRevenue(ctx context.Context, in RevenueInput) (*model.RevenueTransaction, error) {
	now := s.now()

	tx := &model.RevenueTransaction{
		UserID:          in.UserID,
		CourseID:        in.CourseID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		PaymentMethod:   in.PaymentMethod,
		StripeSessionID: in.StripeSessionID,
		Status:          in.Status,
		CompletedAt:     in.CompletedAt,
		Metadata:        datatypes.JSONMap(in.Metadata),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if tx.Currency == "" {
		tx.Currency = "usd"
	}
	if tx.Status == "" {
		tx.Status = model.TransactionStatusPending
	}
	if tx.Status == model.TransactionStatusCompleted && tx.CompletedAt == nil {
		tx.CompletedAt = &now
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if tx.Status == model.TransactionStatusCompleted {
		bucket := tx.BucketTime()
		if err := s.store.IncrementMonthlyRevenue(ctx, bucket.Year(), int(bucket.Month()), tx.Amount); err != nil {
			return nil, err
		}

		interaction := &model.CourseInteraction{
			UserID:          tx.UserID,
			CourseID:        tx.CourseID,
			InteractionType: model.InteractionTypeRevenueTransaction,
			Timestamp:       bucket,
			Metadata: datatypes.JSONMap{
				"amount":   tx.Amount,
				"currency": tx.Currency,
			},
			CreatedAt: now,
		}
		if err := s.store.CreateInteraction(ctx, interaction); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// RefundTransaction marks a recorded transaction as refunded. Refunding an
// already-refunded transaction is a no-op. The monthly revenue buckets are
// monotonic accumulators and are not decremented; a refunded transaction
// simply stops matching the completed-only read path.
func (s *TrackingService) RefundTransaction(ctx context.Context, id uint) (*model.RevenueTransaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	if tx.Status == model.TransactionStatusRefunded {
		return tx, nil
	}

	now := s.now()
	tx.MarkRefunded(now)
	tx.UpdatedAt = now
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SessionInput is the payload for recording a user session
type SessionInput struct {
	UserID          string
	SessionStart    *time.Time
	SessionEnd      *time.Time
	Duration        int
	PageViews       int
	CoursesAccessed int
	DeviceType      model.DeviceType
	Browser         string
	Location        string
	Referrer        string
}

// TrackSession records a new user session. When the payload already carries a
// session end and no explicit duration, the duration is derived as end - start.
func (s *TrackingService) TrackSession(ctx context.Context, in SessionInput) (*model.UserSession, error) {
	now := s.now()

	start := now
	if in.SessionStart != nil {
		start = *in.SessionStart
	}

	session := &model.UserSession{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		SessionStart:    start,
		SessionEnd:      in.SessionEnd,
		Duration:        in.Duration,
		PageViews:       in.PageViews,
		CoursesAccessed: in.CoursesAccessed,
		DeviceType:      in.DeviceType,
		Browser:         in.Browser,
		Location:        in.Location,
		Referrer:        in.Referrer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if session.SessionEnd != nil && session.Duration == 0 {
		session.Duration = int(session.SessionEnd.Sub(session.SessionStart).Seconds())
		if session.Duration < 0 {
			session.Duration = 0
		}
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession closes a previously recorded session, computing its duration.
// Ending an already-ended session is a no-op returning the stored record.
func (s *TrackingService) EndSession(ctx context.Context, sessionID string, end *time.Time) (*model.UserSession, error) {
	at := s.now()
	if end != nil {
		at = *end
	}
	return s.store.EndSession(ctx, sessionID, at)
}

// ProgressInput is the payload for recording a course progress update
type ProgressInput struct {
	UserID    string
	CourseID  string
	Progress  int
	TimeSpent int
}

// TrackProgress upserts the (user, course) progress record. First sight of the
// pair creates the enrollment and emits a course_enrollment interaction; every
// update emits a course_progress interaction; the transition to 100% emits a
// course_completion interaction. IsCompleted never unlatches.
func (s *TrackingService) TrackProgress(ctx context.Context, in ProgressInput) (*model.CourseProgress, error) {
	now := s.now()

	record, err := s.store.GetProgress(ctx, in.UserID, in.CourseID)
	if err != nil {
		return nil, err
	}

	enrolled := false
	if record == nil {
		enrolled = true
		record = &model.CourseProgress{
			UserID:         in.UserID,
			CourseID:       in.CourseID,
			EnrollmentDate: now,
			CreatedAt:      now,
		}
	}

	wasCompleted := record.IsCompleted
	record.ApplyUpdate(in.Progress, in.TimeSpent, now)
	record.UpdatedAt = now

	if err := s.store.SaveProgress(ctx, record); err != nil {
		return nil, err
	}

	if enrolled {
		if err := s.recordInteraction(ctx, in.UserID, in.CourseID, model.InteractionTypeCourseEnrollment, now, nil, nil); err != nil {
			return nil, err
		}
	}

	progress := record.Progress
	duration := in.TimeSpent
	if err := s.recordInteraction(ctx, in.UserID, in.CourseID, model.InteractionTypeCourseProgress, now, &duration, &progress); err != nil {
		return nil, err
	}

	if record.IsCompleted && !wasCompleted {
		if err := s.recordInteraction(ctx, in.UserID, in.CourseID, model.InteractionTypeCourseCompletion, now, nil, nil); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// InteractionInput is the payload for recording a raw course interaction
type InteractionInput struct {
	UserID          string
	CourseID        string
	InteractionType model.InteractionType
	Timestamp       *time.Time
	Duration        *int
	Progress        *int
	Metadata        map[string]interface{}
}

// TrackInteraction appends one interaction event to the log
func (s *TrackingService) TrackInteraction(ctx context.Context, in InteractionInput) (*model.CourseInteraction, error) {
	if !model.ValidInteractionType(in.InteractionType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInteractionType, in.InteractionType)
	}

	now := s.now()
	at := now
	if in.Timestamp != nil {
		at = *in.Timestamp
	}

	interaction := &model.CourseInteraction{
		UserID:          in.UserID,
		CourseID:        in.CourseID,
		InteractionType: in.InteractionType,
		Timestamp:       at,
		Duration:        in.Duration,
		Progress:        in.Progress,
		Metadata:        datatypes.JSONMap(in.Metadata),
		CreatedAt:       now,
	}
	if err := s.store.CreateInteraction(ctx, interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

func (s *TrackingService) recordInteraction(ctx context.Context, userID, courseID string, kind model.InteractionType, at time.Time, duration, progress *int) error {
	return s.store.CreateInteraction(ctx, &model.CourseInteraction{
		UserID:          userID,
		CourseID:        courseID,
		InteractionType: kind,
		Timestamp:       at,
		Duration:        duration,
		Progress:        progress,
		CreatedAt:       at,
	})
}
