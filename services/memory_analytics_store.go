package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/learnloop/api/model"
)

// MemoryAnalyticsStore is the in-memory AnalyticsStore adapter, used by the
// test suite and by fixture mode when no database is configured. It honors
// the same contracts as the Postgres adapter, including the atomic
// seed-or-increment on monthly revenue buckets.
type MemoryAnalyticsStore struct {
	mu           sync.Mutex
	nextID       uint
	transactions []model.RevenueTransaction
	sessions     map[string]*model.UserSession
	progress     map[string]*model.CourseProgress // keyed by userID + "\x00" + courseID
	interactions []model.CourseInteraction
	monthly      map[[2]int]*model.MonthlyRevenue
	rollups      map[string]*model.DailyRollup // keyed by date in 2006-01-02 form
}

// NewMemoryAnalyticsStore creates an empty in-memory analytics store
func NewMemoryAnalyticsStore() *MemoryAnalyticsStore {
	return &MemoryAnalyticsStore{
		sessions: make(map[string]*model.UserSession),
		progress: make(map[string]*model.CourseProgress),
		monthly:  make(map[[2]int]*model.MonthlyRevenue),
		rollups:  make(map[string]*model.DailyRollup),
	}
}

func (s *MemoryAnalyticsStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func progressKey(userID, courseID string) string {
	return userID + "\x00" + courseID
}

func (s *MemoryAnalyticsStore) CreateTransaction(ctx context.Context, tx *model.RevenueTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.allocID()
	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *MemoryAnalyticsStore) GetTransaction(ctx context.Context, id uint) (*model.RevenueTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.ID == id {
			copied := tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryAnalyticsStore) UpdateTransaction(ctx context.Context, tx *model.RevenueTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			s.transactions[i] = *tx
			return nil
		}
	}
	return ErrTransactionNotFound
}

func (s *MemoryAnalyticsStore) CreateSession(ctx context.Context, session *model.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemoryAnalyticsStore) EndSession(ctx context.Context, sessionID string, end time.Time) (*model.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Ended() {
		copied := *session
		return &copied, nil
	}
	session.SessionEnd = &end
	session.Duration = int(end.Sub(session.SessionStart).Seconds())
	if session.Duration < 0 {
		session.Duration = 0
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryAnalyticsStore) GetProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.progress[progressKey(userID, courseID)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryAnalyticsStore) SaveProgress(ctx context.Context, progress *model.CourseProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress.ID == 0 {
		progress.ID = s.allocID()
	}
	copied := *progress
	s.progress[progressKey(progress.UserID, progress.CourseID)] = &copied
	return nil
}

func (s *MemoryAnalyticsStore) CreateInteraction(ctx context.Context, interaction *model.CourseInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interaction.ID = s.allocID()
	s.interactions = append(s.interactions, *interaction)
	return nil
}

func (s *MemoryAnalyticsStore) IncrementMonthlyRevenue(ctx context.Context, year, month int, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int{year, month}
	bucket, ok := s.monthly[key]
	if !ok {
		s.monthly[key] = &model.MonthlyRevenue{
			ID:                s.allocID(),
			Year:              year,
			Month:             month,
			TotalRevenue:      amount,
			TotalTransactions: 1,
		}
		return nil
	}
	bucket.TotalRevenue += amount
	bucket.TotalTransactions++
	return nil
}

func (s *MemoryAnalyticsStore) SaveDailyRollup(ctx context.Context, rollup *model.DailyRollup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rollup.Date.Format("2006-01-02")
	if existing, ok := s.rollups[key]; ok {
		rollup.ID = existing.ID
	} else if rollup.ID == 0 {
		rollup.ID = s.allocID()
	}
	copied := *rollup
	s.rollups[key] = &copied
	return nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (s *MemoryAnalyticsStore) TransactionsBetween(ctx context.Context, start, end time.Time) ([]model.RevenueTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RevenueTransaction
	for _, tx := range s.transactions {
		if tx.Status == model.TransactionStatusCompleted && inRange(tx.BucketTime(), start, end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *MemoryAnalyticsStore) MonthlyRevenueBetween(ctx context.Context, start, end time.Time) ([]model.MonthlyRevenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fromIdx := start.Year()*12 + int(start.Month()) - 1
	toIdx := end.Year()*12 + int(end.Month()) - 1
	var out []model.MonthlyRevenue
	for _, bucket := range s.monthly {
		idx := bucket.Year*12 + bucket.Month - 1
		if idx >= fromIdx && idx <= toIdx {
			out = append(out, *bucket)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (s *MemoryAnalyticsStore) SessionsBetween(ctx context.Context, start, end time.Time) ([]model.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserSession
	for _, session := range s.sessions {
		if inRange(session.SessionStart, start, end) {
			out = append(out, *session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionStart.Before(out[j].SessionStart) })
	return out, nil
}

func (s *MemoryAnalyticsStore) SessionsForUser(ctx context.Context, userID string) ([]model.UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, *session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionStart.Before(out[j].SessionStart) })
	return out, nil
}

func (s *MemoryAnalyticsStore) ProgressEnrolledBetween(ctx context.Context, start, end time.Time) ([]model.CourseProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CourseProgress
	for _, record := range s.progress {
		if inRange(record.EnrollmentDate, start, end) {
			out = append(out, *record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentDate.Before(out[j].EnrollmentDate) })
	return out, nil
}

func (s *MemoryAnalyticsStore) InteractionsBetween(ctx context.Context, start, end time.Time) ([]model.CourseInteraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CourseInteraction
	for _, interaction := range s.interactions {
		if inRange(interaction.Timestamp, start, end) {
			out = append(out, interaction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
