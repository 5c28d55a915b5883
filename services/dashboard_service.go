package services

import (
	"context"
	"time"

	"github.com/learnloop/api/model"
)

// placeholderAverageRating is returned in the dashboard summary until a
// rating pipeline exists. No rating collection backs this number.
const placeholderAverageRating = 4.5

// Dashboard is the composed read model served to the back-office
type Dashboard struct {
	Revenue    *RevenueAnalytics   `json:"revenue"`
	Engagement *EngagementMetrics  `json:"engagement"`
	Content    *ContentPerformance `json:"content"`
	Summary    DashboardSummary    `json:"summary"`
}

// DashboardSummary is the headline row of the dashboard
type DashboardSummary struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	UniqueUsers    int64   `json:"uniqueUsers"`
	CompletionRate float64 `json:"completionRate"`
	AverageRating  float64 `json:"averageRating"`
	TopCourse      string  `json:"topCourse,omitempty"`
}

// DashboardService composes the revenue, engagement and content aggregators
// into one read model. It performs no aggregation of its own; a failure in
// any section fails the whole read.
type DashboardService struct {
	revenue    *RevenueService
	engagement *EngagementService
	content    *ContentService
	store      AnalyticsStore
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store AnalyticsStore) *DashboardService {
	return &DashboardService{
		revenue:    NewRevenueService(store),
		engagement: NewEngagementService(store),
		content:    NewContentService(store),
		store:      store,
	}
}

// Revenue exposes the revenue aggregator for callers that need only that section
func (s *DashboardService) Revenue() *RevenueService { return s.revenue }

// Engagement exposes the engagement aggregator
func (s *DashboardService) Engagement() *EngagementService { return s.engagement }

// Content exposes the content aggregator
func (s *DashboardService) Content() *ContentService { return s.content }

// GetDashboard composes all three sections for the same [start, end] range
func (s *DashboardService) GetDashboard(ctx context.Context, start, end time.Time) (*Dashboard, error) {
	revenue, err := s.revenue.GetRevenueAnalytics(ctx, start, end)
	if err != nil {
		return nil, err
	}
	engagement, err := s.engagement.GetEngagementMetrics(ctx, start, end)
	if err != nil {
		return nil, err
	}
	content, err := s.content.GetContentPerformance(ctx, start, end)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Revenue:    revenue,
		Engagement: engagement,
		Content:    content,
		Summary: DashboardSummary{
			TotalRevenue:   revenue.TotalRevenue,
			UniqueUsers:    engagement.UniqueUsers,
			CompletionRate: engagement.CompletionRate,
			AverageRating:  placeholderAverageRating,
		},
	}
	if len(content.MostPopularCourses) > 0 {
		dashboard.Summary.TopCourse = content.MostPopularCourses[0].CourseID
	}
	return dashboard, nil
}

// GenerateDaily computes and persists the rollup for a single calendar day.
// The day is interpreted in UTC; the stored row is overwritten when the same
// day is generated again.
func (s *DashboardService) GenerateDaily(ctx context.Context, date time.Time) (*model.DailyRollup, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Second)

	txs, err := s.store.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.ProgressEnrolledBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rollup := &model.DailyRollup{
		Date:          start,
		TotalSessions: int64(len(sessions)),
		GeneratedAt:   time.Now().UTC(),
	}
	for _, tx := range txs {
		rollup.TotalRevenue += tx.Amount
		rollup.TotalTransactions++
	}
	users := make(map[string]struct{})
	for _, session := range sessions {
		users[session.UserID] = struct{}{}
	}
	rollup.ActiveUsers = int64(len(users))
	for _, record := range enrollments {
		rollup.TotalEnrollments++
		if record.IsCompleted {
			rollup.TotalCompletions++
		}
	}

	if err := s.store.SaveDailyRollup(ctx, rollup); err != nil {
		return nil, err
	}
	return rollup, nil
}
