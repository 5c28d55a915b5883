package app

import (
	"fmt"

	"github.com/learnloop/api/api"
	"github.com/learnloop/api/config"
	"github.com/learnloop/api/database"
	"github.com/learnloop/api/router"
	"github.com/learnloop/api/services"
	"github.com/learnloop/api/services/cron"
	"github.com/learnloop/api/utils"
	"gorm.io/gorm"
)

// SetupAndRunServer loads configuration, opens the store, optionally starts
// the cron scheduler and serves the API
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(getEnv.GO_ENV)

	store, err := database.StartGORM()
	if err != nil {
		logger.WithError(err).Error("could not connect to PostgreSQL, is it running?")
		return err
	}

	if err := store.Init(); err != nil {
		logger.WithError(err).Error("failed to run database migrations")
		return err
	}

	// The daily rollup is reachable on demand via the generate-daily
	// endpoint; the in-process schedule is opt-in.
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			logger.Warn("failed to get database connection for cron jobs")
		} else {
			analyticsStore := services.NewGormAnalyticsStore(db)
			cronManager = cron.NewCronManager(db, services.NewDashboardService(analyticsStore), logger)
			if err := cronManager.Start(); err != nil {
				logger.WithError(err).Warn("failed to start cron jobs")
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	router.SetupRoutes(app, store, getEnv)

	return server.Run()
}
