package cron

import (
	"time"

	"github.com/learnloop/api/model"
	"github.com/learnloop/api/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CronManager manages the scheduled jobs. Scheduling the daily rollup is an
// operator convenience: the same work is reachable on demand through the
// generate-daily endpoint, and the manager only runs when CRON_ENABLED=true.
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	dashboard *services.DashboardService
	log       *logrus.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, dashboard *services.DashboardService, log *logrus.Logger) *CronManager {
	return &CronManager{
		cron:      cron.New(cron.WithSeconds()),
		db:        db,
		dashboard: dashboard,
		log:       log,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	// Daily at 00:05 UTC: roll up the previous day
	_, err := m.cron.AddFunc("0 5 0 * * *", func() {
		m.logJobStart("generate_daily_rollup")
		m.GenerateDailyRollup()
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday 01:00 UTC: prune old cron job logs
	_, err = m.cron.AddFunc("0 0 1 * * 0", func() {
		m.logJobStart("cleanup_cron_logs")
		m.CleanupCronLogs()
	})
	if err != nil {
		return err
	}

	m.cron.Start()
	m.log.Info("cron jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// logJobStart records the start of a cron job run
func (m *CronManager) logJobStart(jobName string) {
	m.log.WithField("job", jobName).Info("cron job started")

	m.db.Create(&model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	})
}

// logJobComplete marks the latest running entry for the job as completed
func (m *CronManager) logJobComplete(jobName string, message string) {
	m.log.WithField("job", jobName).Info(message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now().UTC(),
			"message":      message,
		})
}

// logJobError marks the latest running entry for the job as failed
func (m *CronManager) logJobError(jobName string, err error) {
	m.log.WithField("job", jobName).WithError(err).Error("cron job failed")

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now().UTC(),
			"error_msg":    err.Error(),
		})
}
