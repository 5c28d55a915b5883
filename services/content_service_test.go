package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/learnloop/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoPlay(courseID string, at time.Time, progress int) model.CourseInteraction {
	p := progress
	return model.CourseInteraction{
		UserID:          "u1",
		CourseID:        courseID,
		InteractionType: model.InteractionTypeVideoPlay,
		Timestamp:       at,
		Progress:        &p,
	}
}

func TestDropOffPointsRoundsToNearestTen(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		progress int
		bucket   int
	}{
		{4, 0},
		{12, 10},
		{14, 10},
		{15, 20},
		{18, 20},
		{55, 60},
		{61, 60},
		{88, 90},
		{95, 100},
	}
	for _, tc := range cases {
		points := dropOffPoints([]model.CourseInteraction{videoPlay("c1", at, tc.progress)})
		require.Len(t, points, 1, "progress %d", tc.progress)
		assert.Equal(t, tc.bucket, points[0].Progress, "progress %d", tc.progress)
	}
}

func TestDropOffPointsKeepsTopThreeBuckets(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	var interactions []model.CourseInteraction
	for _, progress := range []int{12, 18, 55, 61, 88, 31, 29} {
		interactions = append(interactions, videoPlay("c1", at, progress))
	}
	// Buckets: 10:1, 20:1, 60:2, 90:1, 30:2 -> top 3 are 30 and 60 (count 2,
	// progress breaks the tie ascending), then 10.
	points := dropOffPoints(interactions)
	require.Len(t, points, 3)
	assert.Equal(t, DropOffPoint{Progress: 30, Count: 2}, points[0])
	assert.Equal(t, DropOffPoint{Progress: 60, Count: 2}, points[1])
	assert.Equal(t, DropOffPoint{Progress: 10, Count: 1}, points[2])
}

func TestDropOffPointsIgnoresNonPlayAndNilProgress(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	p := 50
	interactions := []model.CourseInteraction{
		{CourseID: "c1", InteractionType: model.InteractionTypeVideoPause, Timestamp: at, Progress: &p},
		{CourseID: "c1", InteractionType: model.InteractionTypeVideoPlay, Timestamp: at},
	}
	assert.Empty(t, dropOffPoints(interactions))
}

func TestGetContentPerformanceAveragesPerCourseRates(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewContentService(store)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	tracking.now = fixedClock(now)

	// Course A: 10 enrollments, 4 completions -> 40%.
	for i := 0; i < 10; i++ {
		progress := 50
		if i < 4 {
			progress = 100
		}
		_, err := tracking.TrackProgress(context.Background(), ProgressInput{
			UserID: fmt.Sprintf("a%d", i), CourseID: "course-a", Progress: progress,
		})
		require.NoError(t, err)
	}
	// Course B: 2 enrollments, 2 completions -> 100%.
	for i := 0; i < 2; i++ {
		_, err := tracking.TrackProgress(context.Background(), ProgressInput{
			UserID: fmt.Sprintf("b%d", i), CourseID: "course-b", Progress: 100,
		})
		require.NoError(t, err)
	}

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	performance, err := svc.GetContentPerformance(context.Background(), start, end)
	require.NoError(t, err)

	// Unweighted mean of 40% and 100%, not the pooled 6/12 = 50%.
	assert.Equal(t, 70.0, performance.AverageCompletionRate)
	assert.Equal(t, 2, performance.TotalCourses)
}

func TestGetContentPerformanceSingleCourseRate(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewContentService(store)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	tracking.now = fixedClock(now)

	for i := 0; i < 10; i++ {
		progress := 30
		if i < 4 {
			progress = 100
		}
		_, err := tracking.TrackProgress(context.Background(), ProgressInput{
			UserID: fmt.Sprintf("u%d", i), CourseID: "course-a", Progress: progress,
		})
		require.NoError(t, err)
	}

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	performance, err := svc.GetContentPerformance(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, performance.MostPopularCourses, 1)
	assert.Equal(t, 40.0, performance.MostPopularCourses[0].CompletionRate)
	assert.Equal(t, 40.0, performance.AverageCompletionRate)
}

func TestGetContentPerformanceRanksAndCapsPopularity(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewContentService(store)

	at := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

	// 12 courses; course-00 gets 12 views, course-01 gets 11, and so on, so
	// only the two least-viewed fall off the top-10 list.
	for c := 0; c < 12; c++ {
		courseID := fmt.Sprintf("course-%02d", c)
		for v := 0; v < 12-c; v++ {
			interaction := videoPlay(courseID, at, 50)
			require.NoError(t, store.CreateInteraction(context.Background(), &interaction))
		}
	}

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	performance, err := svc.GetContentPerformance(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 12, performance.TotalCourses)
	require.Len(t, performance.MostPopularCourses, 10)
	assert.Equal(t, "course-00", performance.MostPopularCourses[0].CourseID)
	assert.Equal(t, int64(12), performance.MostPopularCourses[0].Views)
	assert.Equal(t, "course-09", performance.MostPopularCourses[9].CourseID)
}

func TestGetContentPerformanceAccumulatesTimeSpent(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewContentService(store)

	at := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	duration := 120
	interaction := model.CourseInteraction{
		UserID:          "u1",
		CourseID:        "course-a",
		InteractionType: model.InteractionTypeVideoPlay,
		Timestamp:       at,
		Duration:        &duration,
	}
	require.NoError(t, store.CreateInteraction(context.Background(), &interaction))

	progress := &model.CourseProgress{
		UserID:         "u1",
		CourseID:       "course-a",
		Progress:       60,
		TimeSpent:      300,
		EnrollmentDate: at,
	}
	require.NoError(t, store.SaveProgress(context.Background(), progress))

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	performance, err := svc.GetContentPerformance(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, performance.MostPopularCourses, 1)
	course := performance.MostPopularCourses[0]
	assert.Equal(t, int64(1), course.Views)
	assert.Equal(t, int64(1), course.Enrollments)
	assert.Equal(t, int64(420), course.TimeSpent)
}
