package database

import (
	"fmt"
	"time"

	"github.com/learnloop/api/config"
	"github.com/learnloop/api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the minimal contract the app layer needs from the database
type Storage interface {
	Init() error
	Close() error
	GetDB() interface{}
}

// GORMStore wraps a GORM connection to PostgreSQL
type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    true,
		TranslateError: true, // surface gorm.ErrDuplicatedKey on unique violations
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &GORMStore{db: db}, nil
}

// Init runs AutoMigrate for all models
func (s *GORMStore) Init() error {
	return s.db.AutoMigrate(
		// Catalog
		&model.Course{},

		// Analytics event log
		&model.RevenueTransaction{},
		&model.UserSession{},
		&model.CourseProgress{},
		&model.CourseInteraction{},

		// Pre-aggregated rollups
		&model.MonthlyRevenue{},
		&model.DailyRollup{},

		// Certificates
		&model.Certificate{},

		// Cron audit
		&model.CronJobLog{},
	)
}

// GetDB returns the underlying connection
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// Close closes the underlying sql.DB
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
