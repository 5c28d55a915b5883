package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnloop/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAnalyticsStore is the Postgres-backed AnalyticsStore adapter
type GormAnalyticsStore struct {
	db *gorm.DB
}

// NewGormAnalyticsStore creates a new Postgres-backed analytics store
func NewGormAnalyticsStore(db *gorm.DB) *GormAnalyticsStore {
	return &GormAnalyticsStore{db: db}
}

func (s *GormAnalyticsStore) CreateTransaction(ctx context.Context, tx *model.RevenueTransaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create revenue transaction: %w", err)
	}
	return nil
}

func (s *GormAnalyticsStore) GetTransaction(ctx context.Context, id uint) (*model.RevenueTransaction, error) {
	var tx model.RevenueTransaction
	err := s.db.WithContext(ctx).First(&tx, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revenue transaction: %w", err)
	}
	return &tx, nil
}

func (s *GormAnalyticsStore) UpdateTransaction(ctx context.Context, tx *model.RevenueTransaction) error {
	if err := s.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update revenue transaction: %w", err)
	}
	return nil
}

func (s *GormAnalyticsStore) CreateSession(ctx context.Context, session *model.UserSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create user session: %w", err)
	}
	return nil
}

func (s *GormAnalyticsStore) EndSession(ctx context.Context, sessionID string, end time.Time) (*model.UserSession, error) {
	var session model.UserSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	// Sessions are mutated exactly once, at session end.
	if session.Ended() {
		return &session, nil
	}

	session.SessionEnd = &end
	session.Duration = int(end.Sub(session.SessionStart).Seconds())
	if session.Duration < 0 {
		session.Duration = 0
	}
	if err := s.db.WithContext(ctx).Save(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return &session, nil
}

func (s *GormAnalyticsStore) GetProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course progress: %w", err)
	}
	return &progress, nil
}

func (s *GormAnalyticsStore) SaveProgress(ctx context.Context, progress *model.CourseProgress) error {
	if err := s.db.WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to save course progress: %w", err)
	}
	return nil
}

func (s *GormAnalyticsStore) CreateInteraction(ctx context.Context, interaction *model.CourseInteraction) error {
	if err := s.db.WithContext(ctx).Create(interaction).Error; err != nil {
		return fmt.Errorf("failed to create course interaction: %w", err)
	}
	return nil
}

// IncrementMonthlyRevenue seeds the (year, month) bucket on first write and
// increments it by delta afterwards. The ON CONFLICT clause makes the
// seed-or-increment atomic, so concurrent first-writes to a new bucket cannot
// double-seed and concurrent increments never lose updates.
func (s *GormAnalyticsStore) IncrementMonthlyRevenue(ctx context.Context, year, month int, amount float64) error {
	bucket := model.MonthlyRevenue{
		Year:              year,
		Month:             month,
		TotalRevenue:      amount,
		TotalTransactions: 1,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_revenue":      gorm.Expr("monthly_revenues.total_revenue + excluded.total_revenue"),
			"total_transactions": gorm.Expr("monthly_revenues.total_transactions + excluded.total_transactions"),
			"updated_at":         time.Now().UTC(),
		}),
	}).Create(&bucket).Error
	if err != nil {
		return fmt.Errorf("failed to increment monthly revenue bucket %d-%02d: %w", year, month, err)
	}
	return nil
}

func (s *GormAnalyticsStore) SaveDailyRollup(ctx context.Context, rollup *model.DailyRollup) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(rollup).Error
	if err != nil {
		return fmt.Errorf("failed to save daily rollup: %w", err)
	}
	return nil
}

func (s *GormAnalyticsStore) TransactionsBetween(ctx context.Context, start, end time.Time) ([]model.RevenueTransaction, error) {
	var txs []model.RevenueTransaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND COALESCE(completed_at, created_at) BETWEEN ? AND ?",
			model.TransactionStatusCompleted, start, end).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txs, nil
}

func (s *GormAnalyticsStore) MonthlyRevenueBetween(ctx context.Context, start, end time.Time) ([]model.MonthlyRevenue, error) {
	fromIdx := start.Year()*12 + int(start.Month()) - 1
	toIdx := end.Year()*12 + int(end.Month()) - 1

	var buckets []model.MonthlyRevenue
	err := s.db.WithContext(ctx).
		Where("(year * 12 + month - 1) BETWEEN ? AND ?", fromIdx, toIdx).
		Order("year ASC, month ASC").
		Find(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly revenue buckets: %w", err)
	}
	return buckets, nil
}

func (s *GormAnalyticsStore) SessionsBetween(ctx context.Context, start, end time.Time) ([]model.UserSession, error) {
	var sessions []model.UserSession
	err := s.db.WithContext(ctx).
		Where("session_start BETWEEN ? AND ?", start, end).
		Order("session_start ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return sessions, nil
}

func (s *GormAnalyticsStore) SessionsForUser(ctx context.Context, userID string) ([]model.UserSession, error) {
	var sessions []model.UserSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("session_start ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions for user: %w", err)
	}
	return sessions, nil
}

func (s *GormAnalyticsStore) ProgressEnrolledBetween(ctx context.Context, start, end time.Time) ([]model.CourseProgress, error) {
	var records []model.CourseProgress
	err := s.db.WithContext(ctx).
		Where("enrollment_date BETWEEN ? AND ?", start, end).
		Order("enrollment_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress records: %w", err)
	}
	return records, nil
}

func (s *GormAnalyticsStore) InteractionsBetween(ctx context.Context, start, end time.Time) ([]model.CourseInteraction, error) {
	var interactions []model.CourseInteraction
	err := s.db.WithContext(ctx).
		Where("timestamp BETWEEN ? AND ?", start, end).
		Order("timestamp ASC").
		Find(&interactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	return interactions, nil
}
