package services

import (
	"context"
	"testing"
	"time"

	"github.com/learnloop/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, store *MemoryAnalyticsStore, id, userID string, start time.Time, duration int) {
	t.Helper()
	session := &model.UserSession{
		ID:           id,
		UserID:       userID,
		SessionStart: start,
		Duration:     duration,
	}
	if duration > 0 {
		end := start.Add(time.Duration(duration) * time.Second)
		session.SessionEnd = &end
	}
	require.NoError(t, store.CreateSession(context.Background(), session))
}

func TestGetEngagementMetricsAveragesDurations(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewEngagementService(store)

	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, store, "s1", "u1", day.Add(9*time.Hour), 100)
	seedSession(t, store, "s2", "u1", day.Add(14*time.Hour), 200)

	metrics, err := svc.GetEngagementMetrics(context.Background(), day, day.Add(24*time.Hour-time.Second))
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.TotalSessions)
	assert.Equal(t, int64(1), metrics.UniqueUsers)
	assert.Equal(t, 150.0, metrics.AverageSessionDuration)
}

func TestGetEngagementMetricsUnendedSessionSkewsAverage(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewEngagementService(store)

	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, store, "s1", "u1", day.Add(9*time.Hour), 300)
	seedSession(t, store, "s2", "u2", day.Add(10*time.Hour), 0) // never ended

	metrics, err := svc.GetEngagementMetrics(context.Background(), day, day.Add(24*time.Hour-time.Second))
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.TotalSessions)
	assert.Equal(t, 150.0, metrics.AverageSessionDuration)
}

func TestGetEngagementMetricsCompletionRate(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewEngagementService(store)

	now := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)
	tracking.now = fixedClock(now)

	_, err := tracking.TrackProgress(context.Background(), ProgressInput{UserID: "u1", CourseID: "c1", Progress: 100})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{UserID: "u2", CourseID: "c1", Progress: 40})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{UserID: "u3", CourseID: "c2", Progress: 10})
	require.NoError(t, err)
	_, err = tracking.TrackProgress(context.Background(), ProgressInput{UserID: "u4", CourseID: "c2", Progress: 100})
	require.NoError(t, err)

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC)
	metrics, err := svc.GetEngagementMetrics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, int64(4), metrics.TotalEnrollments)
	assert.Equal(t, int64(2), metrics.TotalCompletions)
	assert.Equal(t, 50.0, metrics.CompletionRate)
}

func TestGetEngagementMetricsZeroEnrollments(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewEngagementService(store)

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC)
	metrics, err := svc.GetEngagementMetrics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Zero(t, metrics.CompletionRate)
	assert.Zero(t, metrics.RetentionRate)
	assert.Zero(t, metrics.AverageSessionDuration)
}

func TestDailyActiveUsersSeriesIsDense(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewEngagementService(store)

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 5, 23, 59, 59, 0, time.UTC)

	// Activity on the 1st (two users) and the 4th (one user); the 2nd, 3rd and
	// 5th stay at zero but must still be present.
	seedSession(t, store, "s1", "u1", start.Add(8*time.Hour), 60)
	seedSession(t, store, "s2", "u2", start.Add(9*time.Hour), 60)
	seedSession(t, store, "s3", "u1", start.AddDate(0, 0, 3).Add(11*time.Hour), 60)

	metrics, err := svc.GetEngagementMetrics(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, metrics.DailyActiveUsers, 5)
	assert.Equal(t, "2024-04-01", metrics.DailyActiveUsers[0].Date)
	assert.Equal(t, int64(2), metrics.DailyActiveUsers[0].ActiveUsers)
	assert.Equal(t, int64(0), metrics.DailyActiveUsers[1].ActiveUsers)
	assert.Equal(t, int64(0), metrics.DailyActiveUsers[2].ActiveUsers)
	assert.Equal(t, "2024-04-04", metrics.DailyActiveUsers[3].Date)
	assert.Equal(t, int64(1), metrics.DailyActiveUsers[3].ActiveUsers)
	assert.Equal(t, int64(0), metrics.DailyActiveUsers[4].ActiveUsers)
}
