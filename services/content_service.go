package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/learnloop/api/model"
)

// ContentPerformance is the read model for the content section of the dashboard
type ContentPerformance struct {
	MostPopularCourses    []CoursePerformance `json:"mostPopularCourses"`
	AverageCompletionRate float64             `json:"averageCompletionRate"`
	TotalCourses          int                 `json:"totalCourses"`
}

// CoursePerformance summarizes one course's interaction and progress activity
type CoursePerformance struct {
	CourseID       string         `json:"courseId"`
	Views          int64          `json:"views"`
	Enrollments    int64          `json:"enrollments"`
	Completions    int64          `json:"completions"`
	CompletionRate float64        `json:"completionRate"`
	TimeSpent      int64          `json:"timeSpent"`
	DropOffPoints  []DropOffPoint `json:"dropOffPoints"`
}

// DropOffPoint is one bucket of the video drop-off histogram: a progress
// percentage (rounded to the nearest multiple of 10) and how many video_play
// events landed there
type DropOffPoint struct {
	Progress int   `json:"progress"`
	Count    int64 `json:"count"`
}

// ContentService aggregates course interactions and progress records into
// per-course performance and popularity rankings
type ContentService struct {
	store AnalyticsStore
}

// NewContentService creates a new content service
func NewContentService(store AnalyticsStore) *ContentService {
	return &ContentService{store: store}
}

const mostPopularLimit = 10

type courseAccumulator struct {
	views        int64
	enrollments  int64
	completions  int64
	timeSpent    int64
	interactions []model.CourseInteraction
}

// GetContentPerformance groups the interaction and progress streams by course
// over [start, end]. Views count video_play interactions only. The average
// completion rate is the unweighted mean of each course's own completion
// rate, not a pooled completions/enrollments ratio; the two diverge when
// enrollment counts differ across courses.
func (s *ContentService) GetContentPerformance(ctx context.Context, start, end time.Time) (*ContentPerformance, error) {
	interactions, err := s.store.InteractionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ProgressEnrolledBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	courses := make(map[string]*courseAccumulator)
	acc := func(courseID string) *courseAccumulator {
		a, ok := courses[courseID]
		if !ok {
			a = &courseAccumulator{}
			courses[courseID] = a
		}
		return a
	}

	for _, interaction := range interactions {
		a := acc(interaction.CourseID)
		a.interactions = append(a.interactions, interaction)
		if interaction.InteractionType == model.InteractionTypeVideoPlay {
			a.views++
		}
		if interaction.Duration != nil {
			a.timeSpent += int64(*interaction.Duration)
		}
	}
	for _, record := range progress {
		a := acc(record.CourseID)
		a.enrollments++
		if record.IsCompleted {
			a.completions++
		}
		a.timeSpent += int64(record.TimeSpent)
	}

	performance := &ContentPerformance{
		MostPopularCourses: []CoursePerformance{},
		TotalCourses:       len(courses),
	}

	ranked := make([]CoursePerformance, 0, len(courses))
	var rateSum float64
	for courseID, a := range courses {
		course := CoursePerformance{
			CourseID:      courseID,
			Views:         a.views,
			Enrollments:   a.enrollments,
			Completions:   a.completions,
			TimeSpent:     a.timeSpent,
			DropOffPoints: dropOffPoints(a.interactions),
		}
		if a.enrollments > 0 {
			course.CompletionRate = float64(a.completions) / float64(a.enrollments) * 100
		}
		rateSum += course.CompletionRate
		ranked = append(ranked, course)
	}
	if len(courses) > 0 {
		performance.AverageCompletionRate = rateSum / float64(len(courses))
	}

	// Popularity: views + enrollments, descending; course id breaks ties so
	// the ranking is stable across calls.
	sort.Slice(ranked, func(i, j int) bool {
		pi := ranked[i].Views + ranked[i].Enrollments
		pj := ranked[j].Views + ranked[j].Enrollments
		if pi != pj {
			return pi > pj
		}
		return ranked[i].CourseID < ranked[j].CourseID
	})
	if len(ranked) > mostPopularLimit {
		ranked = ranked[:mostPopularLimit]
	}
	performance.MostPopularCourses = ranked

	return performance, nil
}

// dropOffPoints builds the video drop-off histogram for one course: the
// progress of every video_play event, rounded to the nearest multiple of 10,
// counted, and the top 3 buckets kept. A play event near a given progress
// marks a (re-)start point, which stands in for where viewers abandon the
// video; the heuristic is approximate and intentionally left as-is.
func dropOffPoints(interactions []model.CourseInteraction) []DropOffPoint {
	histogram := make(map[int]int64)
	for _, interaction := range interactions {
		if interaction.InteractionType != model.InteractionTypeVideoPlay || interaction.Progress == nil {
			continue
		}
		bucket := int(math.Round(float64(*interaction.Progress)/10)) * 10
		histogram[bucket]++
	}

	points := make([]DropOffPoint, 0, len(histogram))
	for progress, count := range histogram {
		points = append(points, DropOffPoint{Progress: progress, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Count != points[j].Count {
			return points[i].Count > points[j].Count
		}
		return points[i].Progress < points[j].Progress
	})
	if len(points) > 3 {
		points = points[:3]
	}
	return points
}
