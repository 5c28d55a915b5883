package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/learnloop/api/model"
)

// GenerateDailyRollup computes and persists the rollup for yesterday (UTC)
func (m *CronManager) GenerateDailyRollup() {
	jobName := "generate_daily_rollup"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	rollup, err := m.dashboard.GenerateDaily(ctx, yesterday)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to generate daily rollup: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf(
		"Rolled up %s: %d sessions, %d transactions, %.2f revenue",
		rollup.Date.Format("2006-01-02"), rollup.TotalSessions,
		rollup.TotalTransactions, rollup.TotalRevenue))
}

// CleanupCronLogs prunes cron job logs older than 90 days
func (m *CronManager) CleanupCronLogs() {
	jobName := "cleanup_cron_logs"

	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	result := m.db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d cron log rows", result.RowsAffected))
}
