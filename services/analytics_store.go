package services

import (
	"context"
	"time"

	"github.com/learnloop/api/model"
)

// AnalyticsStore is the persistence boundary for the analytics pipeline.
// The write path appends events; the read path fetches raw event slices that
// the calculators reduce in memory. Two implementations exist: a
// Postgres-backed adapter for production and an in-memory adapter for tests
// and fixture mode, selected by dependency injection.
type AnalyticsStore interface {
	// Write path. Each call is a single independent append except
	// IncrementMonthlyRevenue, which must be an atomic
	// create-if-absent-else-increment on the (year, month) bucket.
	CreateTransaction(ctx context.Context, tx *model.RevenueTransaction) error
	// GetTransaction returns (nil, nil) for unknown ids.
	GetTransaction(ctx context.Context, id uint) (*model.RevenueTransaction, error)
	UpdateTransaction(ctx context.Context, tx *model.RevenueTransaction) error
	CreateSession(ctx context.Context, session *model.UserSession) error
	EndSession(ctx context.Context, sessionID string, end time.Time) (*model.UserSession, error)
	GetProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error)
	SaveProgress(ctx context.Context, progress *model.CourseProgress) error
	CreateInteraction(ctx context.Context, interaction *model.CourseInteraction) error
	IncrementMonthlyRevenue(ctx context.Context, year, month int, amount float64) error
	SaveDailyRollup(ctx context.Context, rollup *model.DailyRollup) error

	// Read path. All ranges are closed intervals [start, end].
	// TransactionsBetween returns completed transactions whose bucket time
	// (completion time, falling back to creation time) lies in range.
	TransactionsBetween(ctx context.Context, start, end time.Time) ([]model.RevenueTransaction, error)
	MonthlyRevenueBetween(ctx context.Context, start, end time.Time) ([]model.MonthlyRevenue, error)
	SessionsBetween(ctx context.Context, start, end time.Time) ([]model.UserSession, error)
	SessionsForUser(ctx context.Context, userID string) ([]model.UserSession, error)
	ProgressEnrolledBetween(ctx context.Context, start, end time.Time) ([]model.CourseProgress, error)
	InteractionsBetween(ctx context.Context, start, end time.Time) ([]model.CourseInteraction, error)
}
