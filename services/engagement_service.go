package services

import (
	"context"
	"time"

	"github.com/learnloop/api/model"
)

// EngagementMetrics is the read model for the engagement section of the dashboard
type EngagementMetrics struct {
	TotalSessions          int64              `json:"totalSessions"`
	UniqueUsers            int64              `json:"uniqueUsers"`
	AverageSessionDuration float64            `json:"averageSessionDuration"`
	TotalEnrollments       int64              `json:"totalEnrollments"`
	TotalCompletions       int64              `json:"totalCompletions"`
	CompletionRate         float64            `json:"completionRate"`
	RetentionRate          float64            `json:"retentionRate"`
	DailyActiveUsers       []DailyActiveUsers `json:"dailyActiveUsers"`
}

// DailyActiveUsers is one point of the dense per-day active-user series
type DailyActiveUsers struct {
	Date        string `json:"date"`
	ActiveUsers int64  `json:"activeUsers"`
}

// EngagementService computes session and enrollment engagement metrics over a
// closed date interval
type EngagementService struct {
	store AnalyticsStore
}

// NewEngagementService creates a new engagement service
func NewEngagementService(store AnalyticsStore) *EngagementService {
	return &EngagementService{store: store}
}

// GetEngagementMetrics aggregates sessions and enrollments over [start, end].
// Sessions that never ended count toward totalSessions and pull the average
// duration down with a zero contribution; that skew comes from the tracking
// client and is surfaced as-is rather than silently corrected.
func (s *EngagementService) GetEngagementMetrics(ctx context.Context, start, end time.Time) (*EngagementMetrics, error) {
	sessions, err := s.store.SessionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.ProgressEnrolledBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	metrics := &EngagementMetrics{
		TotalSessions:    int64(len(sessions)),
		TotalEnrollments: int64(len(enrollments)),
	}

	users := make(map[string]struct{})
	var durationSum int64
	for _, session := range sessions {
		users[session.UserID] = struct{}{}
		durationSum += int64(session.Duration)
	}
	metrics.UniqueUsers = int64(len(users))
	if metrics.TotalSessions > 0 {
		metrics.AverageSessionDuration = float64(durationSum) / float64(metrics.TotalSessions)
	}

	for _, record := range enrollments {
		if record.IsCompleted {
			metrics.TotalCompletions++
		}
	}
	if metrics.TotalEnrollments > 0 {
		metrics.CompletionRate = float64(metrics.TotalCompletions) / float64(metrics.TotalEnrollments) * 100
	}

	metrics.DailyActiveUsers = dailyActiveUsers(sessions, start, end)

	retention, err := s.retentionRate(ctx, start, end, sessions)
	if err != nil {
		return nil, err
	}
	metrics.RetentionRate = retention

	return metrics, nil
}

// dailyActiveUsers produces one point per calendar day in [start, end]
// inclusive, in chronological order, with zero-activity days present.
func dailyActiveUsers(sessions []model.UserSession, start, end time.Time) []DailyActiveUsers {
	byDay := make(map[string]map[string]struct{})
	for _, session := range sessions {
		day := session.SessionStart.UTC().Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = make(map[string]struct{})
		}
		byDay[day][session.UserID] = struct{}{}
	}

	series := []DailyActiveUsers{}
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, DailyActiveUsers{
			Date:        key,
			ActiveUsers: int64(len(byDay[key])),
		})
	}
	return series
}
