package services

import (
	"context"
	"testing"
	"time"

	"github.com/learnloop/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardComposesAllSections(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewDashboardService(store)

	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	tracking.now = fixedClock(now)

	_, err := tracking.TrackRevenue(context.Background(), RevenueInput{
		UserID: "u1", CourseID: "course-a", Amount: 80, Status: model.TransactionStatusCompleted,
	})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{
		UserID: "u1", CourseID: "course-a", Progress: 100,
	})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{
		UserID: "u2", CourseID: "course-b", Progress: 30,
	})
	require.NoError(t, err)
	seedSession(t, store, "s1", "u1", now, 60)
	seedSession(t, store, "s2", "u2", now.Add(time.Hour), 120)

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 31, 23, 59, 59, 0, time.UTC)
	dashboard, err := svc.GetDashboard(context.Background(), start, end)
	require.NoError(t, err)

	require.NotNil(t, dashboard.Revenue)
	require.NotNil(t, dashboard.Engagement)
	require.NotNil(t, dashboard.Content)

	assert.Equal(t, 80.0, dashboard.Summary.TotalRevenue)
	assert.Equal(t, int64(2), dashboard.Summary.UniqueUsers)
	assert.Equal(t, 50.0, dashboard.Summary.CompletionRate)
	assert.Equal(t, 4.5, dashboard.Summary.AverageRating)
	assert.NotEmpty(t, dashboard.Summary.TopCourse)

	// The summary mirrors the sections it is derived from.
	assert.Equal(t, dashboard.Revenue.TotalRevenue, dashboard.Summary.TotalRevenue)
	assert.Equal(t, dashboard.Engagement.UniqueUsers, dashboard.Summary.UniqueUsers)
	assert.Equal(t, dashboard.Content.MostPopularCourses[0].CourseID, dashboard.Summary.TopCourse)
}

func TestGetDashboardEmptyWindow(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewDashboardService(store)

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 31, 23, 59, 59, 0, time.UTC)
	dashboard, err := svc.GetDashboard(context.Background(), start, end)
	require.NoError(t, err)

	assert.Zero(t, dashboard.Summary.TotalRevenue)
	assert.Zero(t, dashboard.Summary.UniqueUsers)
	assert.Zero(t, dashboard.Summary.CompletionRate)
	assert.Equal(t, 4.5, dashboard.Summary.AverageRating)
	assert.Empty(t, dashboard.Summary.TopCourse)
}

func TestGenerateDailyPersistsRollup(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewDashboardService(store)

	day := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	inDay := day.Add(10 * time.Hour)
	nextDay := day.AddDate(0, 0, 1).Add(2 * time.Hour)
	tracking.now = fixedClock(inDay)

	_, err := tracking.TrackRevenue(context.Background(), RevenueInput{
		UserID: "u1", CourseID: "course-a", Amount: 45, Status: model.TransactionStatusCompleted,
	})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{
		UserID: "u1", CourseID: "course-a", Progress: 100,
	})
	require.NoError(t, err)
	seedSession(t, store, "s1", "u1", inDay, 60)
	seedSession(t, store, "s2", "u2", inDay.Add(time.Hour), 90)
	seedSession(t, store, "s3", "u3", nextDay, 90) // outside the rollup day

	rollup, err := svc.GenerateDaily(context.Background(), day.Add(13*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, day, rollup.Date)
	assert.Equal(t, 45.0, rollup.TotalRevenue)
	assert.Equal(t, int64(1), rollup.TotalTransactions)
	assert.Equal(t, int64(2), rollup.TotalSessions)
	assert.Equal(t, int64(2), rollup.ActiveUsers)
	assert.Equal(t, int64(1), rollup.TotalEnrollments)
	assert.Equal(t, int64(1), rollup.TotalCompletions)
	assert.False(t, rollup.GeneratedAt.IsZero())

	// Regenerating the same day overwrites rather than duplicating.
	again, err := svc.GenerateDaily(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, rollup.ID, again.ID)
}
