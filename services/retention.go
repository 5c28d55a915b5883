package services

import (
	"context"
	"sort"
	"time"

	"github.com/learnloop/api/model"
)

// retentionWindow is the fixed follow-up horizon for the retention cohort.
// Changing it changes the meaning of the metric, so it is deliberately not
// configurable.
const retentionWindow = 7 * 24 * time.Hour

// retentionRate computes the fixed 7-day look-ahead cohort metric: a new user
// is one whose earliest observed session falls within [start, end]; they count
// as retained when at least one later session starts at or after their first
// session time plus the retention window. Returns 0 when the window has no new
// users.
//
// This issues one follow-up read per candidate user, matching the on-demand
// nature of the dashboard read path. At larger cohort sizes the lookups should
// be batched; the cohort definition and threshold must stay exactly as is.
func (s *EngagementService) retentionRate(ctx context.Context, start, end time.Time, windowSessions []model.UserSession) (float64, error) {
	candidates := make([]string, 0)
	seen := make(map[string]struct{})
	for _, session := range windowSessions {
		if _, ok := seen[session.UserID]; ok {
			continue
		}
		seen[session.UserID] = struct{}{}
		candidates = append(candidates, session.UserID)
	}
	sort.Strings(candidates)

	var newUsers, retained int64
	for _, userID := range candidates {
		all, err := s.store.SessionsForUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		if len(all) == 0 {
			continue
		}

		first := all[0].SessionStart
		for _, session := range all[1:] {
			if session.SessionStart.Before(first) {
				first = session.SessionStart
			}
		}

		// Users whose first session predates the window belong to an
		// earlier cohort.
		if first.Before(start) || first.After(end) {
			continue
		}
		newUsers++

		threshold := first.Add(retentionWindow)
		for _, session := range all {
			if !session.SessionStart.Before(threshold) {
				retained++
				break
			}
		}
	}

	if newUsers == 0 {
		return 0, nil
	}
	return float64(retained) / float64(newUsers) * 100, nil
}
