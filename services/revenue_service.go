package services

import (
	"context"
	"time"
)

// RevenueAnalytics is the read model for the revenue section of the dashboard
type RevenueAnalytics struct {
	TotalRevenue      float64               `json:"totalRevenue"`
	TotalTransactions int64                 `json:"totalTransactions"`
	AverageOrderValue float64               `json:"averageOrderValue"`
	UniqueCustomers   int64                 `json:"uniqueCustomers"`
	RevenueByMethod   map[string]float64    `json:"revenueByMethod"`
	MonthlyBreakdown  []MonthlyRevenuePoint `json:"monthlyBreakdown"`
}

// MonthlyRevenuePoint is one pre-aggregated monthly bucket, with the average
// order value derived on read
type MonthlyRevenuePoint struct {
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalTransactions int64   `json:"totalTransactions"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// RevenueService computes revenue analytics from completed transactions and
// the incrementally maintained monthly buckets
type RevenueService struct {
	store AnalyticsStore
}

// NewRevenueService creates a new revenue service
func NewRevenueService(store AnalyticsStore) *RevenueService {
	return &RevenueService{store: store}
}

// GetRevenueAnalytics aggregates completed transactions over the closed
// interval [start, end]
func (s *RevenueService) GetRevenueAnalytics(ctx context.Context, start, end time.Time) (*RevenueAnalytics, error) {
	txs, err := s.store.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	analytics := &RevenueAnalytics{
		RevenueByMethod:  make(map[string]float64),
		MonthlyBreakdown: []MonthlyRevenuePoint{},
	}

	customers := make(map[string]struct{})
	for _, tx := range txs {
		analytics.TotalRevenue += tx.Amount
		analytics.TotalTransactions++
		customers[tx.UserID] = struct{}{}
		method := tx.PaymentMethod
		if method == "" {
			method = "unknown"
		}
		analytics.RevenueByMethod[method] += tx.Amount
	}
	analytics.UniqueCustomers = int64(len(customers))
	if analytics.TotalTransactions > 0 {
		analytics.AverageOrderValue = analytics.TotalRevenue / float64(analytics.TotalTransactions)
	}

	buckets, err := s.store.MonthlyRevenueBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for i := range buckets {
		bucket := &buckets[i]
		analytics.MonthlyBreakdown = append(analytics.MonthlyBreakdown, MonthlyRevenuePoint{
			Year:              bucket.Year,
			Month:             bucket.Month,
			TotalRevenue:      bucket.TotalRevenue,
			TotalTransactions: bucket.TotalTransactions,
			AverageOrderValue: bucket.AverageOrderValue(),
		})
	}

	return analytics, nil
}
