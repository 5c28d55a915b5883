package services

import (
	"context"
	"testing"
	"time"

	"github.com/learnloop/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRevenueAnalyticsSingleCompletedTransaction(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewRevenueService(store)

	completed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	_, err := tracking.TrackRevenue(context.Background(), RevenueInput{
		UserID:        "u1",
		CourseID:      "c1",
		Amount:        50,
		PaymentMethod: "stripe",
		Status:        model.TransactionStatusCompleted,
		CompletedAt:   &completed,
	})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	analytics, err := svc.GetRevenueAnalytics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 50.0, analytics.TotalRevenue)
	assert.Equal(t, int64(1), analytics.TotalTransactions)
	assert.Equal(t, 50.0, analytics.AverageOrderValue)
	assert.Equal(t, int64(1), analytics.UniqueCustomers)
	assert.Equal(t, 50.0, analytics.RevenueByMethod["stripe"])

	require.Len(t, analytics.MonthlyBreakdown, 1)
	assert.Equal(t, 2024, analytics.MonthlyBreakdown[0].Year)
	assert.Equal(t, 3, analytics.MonthlyBreakdown[0].Month)
	assert.Equal(t, 50.0, analytics.MonthlyBreakdown[0].TotalRevenue)
	assert.Equal(t, int64(1), analytics.MonthlyBreakdown[0].TotalTransactions)
	assert.Equal(t, 50.0, analytics.MonthlyBreakdown[0].AverageOrderValue)
}

func TestGetRevenueAnalyticsExcludesPendingAndOutOfRange(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	tracking := NewTrackingService(store)
	svc := NewRevenueService(store)

	inWindow := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	before := time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)

	for _, in := range []RevenueInput{
		{UserID: "u1", CourseID: "c1", Amount: 100, PaymentMethod: "stripe", Status: model.TransactionStatusCompleted, CompletedAt: &inWindow},
		{UserID: "u2", CourseID: "c1", Amount: 40, PaymentMethod: "paypal", Status: model.TransactionStatusCompleted, CompletedAt: &inWindow},
		{UserID: "u3", CourseID: "c2", Amount: 75, PaymentMethod: "stripe", Status: model.TransactionStatusPending},
		{UserID: "u4", CourseID: "c2", Amount: 60, PaymentMethod: "stripe", Status: model.TransactionStatusCompleted, CompletedAt: &before},
	} {
		_, err := tracking.TrackRevenue(context.Background(), in)
		require.NoError(t, err)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	analytics, err := svc.GetRevenueAnalytics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 140.0, analytics.TotalRevenue)
	assert.Equal(t, int64(2), analytics.TotalTransactions)
	assert.Equal(t, 70.0, analytics.AverageOrderValue)
	assert.Equal(t, int64(2), analytics.UniqueCustomers)
	assert.Equal(t, 100.0, analytics.RevenueByMethod["stripe"])
	assert.Equal(t, 40.0, analytics.RevenueByMethod["paypal"])
}

func TestGetRevenueAnalyticsEmptyWindow(t *testing.T) {
	store := NewMemoryAnalyticsStore()
	svc := NewRevenueService(store)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	analytics, err := svc.GetRevenueAnalytics(context.Background(), start, end)
	require.NoError(t, err)

	assert.Zero(t, analytics.TotalRevenue)
	assert.Zero(t, analytics.TotalTransactions)
	assert.Zero(t, analytics.AverageOrderValue)
	assert.Zero(t, analytics.UniqueCustomers)
	assert.Empty(t, analytics.MonthlyBreakdown)
	assert.NotNil(t, analytics.MonthlyBreakdown)
}
