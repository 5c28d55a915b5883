package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/config"
	"github.com/learnloop/api/database"
	"github.com/learnloop/api/handlers"
	analytics_handlers "github.com/learnloop/api/handlers/analytics"
	certificate_handlers "github.com/learnloop/api/handlers/certificate"
	course_handlers "github.com/learnloop/api/handlers/course"
	"github.com/learnloop/api/services"
	"github.com/learnloop/api/services/spaces"
	"github.com/learnloop/api/utils"
	"github.com/learnloop/api/utils/cache"
	"github.com/learnloop/api/utils/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires stores, services and handlers onto the fiber app
func SetupRoutes(app *fiber.App, store database.Storage, getEnv *config.EnvironmentVariable) {
	logger := utils.NewLogger(getEnv.GO_ENV)

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Dashboard read cache; analytics stays functional without it
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		var err error
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, dashboard reads will not be cached")
			redisCache = nil
		}
	}

	// Certificate artifacts live in Spaces
	var storage *spaces.Client
	if getEnv.SPACES_BUCKET != "" {
		var err error
		storage, err = spaces.NewClient(spaces.Config{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
			CDNURL:    getEnv.SPACES_CDN_URL,
		})
		if err != nil {
			logger.WithError(err).Warn("spaces unavailable, certificate issuance disabled")
		}
	}

	analyticsStore := services.NewGormAnalyticsStore(db)
	trackingService := services.NewTrackingService(analyticsStore)
	dashboardService := services.NewDashboardService(analyticsStore)

	analyticsHandler := analytics_handlers.NewAnalyticsHandler(trackingService, dashboardService, redisCache, logger)
	courseHandler := course_handlers.NewCourseHandler(db, trackingService)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
	})

	app.Get("/health", handlers.HandleCheckHealth)

	v1 := app.Group("/api/v1")

	// Write path: client-side tracker endpoints
	track := v1.Group("/analytics/track")
	track.Post("/revenue", analyticsHandler.TrackRevenue)
	track.Post("/revenue/:id/refund", analyticsHandler.RefundTransaction)
	track.Post("/session", analyticsHandler.TrackSession)
	track.Post("/session/:id/end", analyticsHandler.EndSession)
	track.Post("/progress", analyticsHandler.TrackProgress)
	track.Post("/interaction", analyticsHandler.TrackInteraction)

	// Read path: back-office analytics. The gate sits on each route rather
	// than the group so it never shadows the public /analytics/track prefix.
	adminOnly := middleware.RequireAdminKey(getEnv.ADMIN_API_KEY_HASH)
	analytics := v1.Group("/analytics")
	analytics.Get("/revenue", adminOnly, analyticsHandler.GetRevenue)
	analytics.Get("/engagement", adminOnly, analyticsHandler.GetEngagement)
	analytics.Get("/content", adminOnly, analyticsHandler.GetContent)
	analytics.Get("/dashboard", adminOnly, analyticsHandler.GetDashboard)
	analytics.Post("/generate-daily", adminOnly, analyticsHandler.GenerateDaily)

	// Catalog
	v1.Get("/courses", courseHandler.List)
	v1.Get("/courses/:slug", courseHandler.Get)
	v1.Post("/courses/:slug/enroll", courseHandler.Enroll)
	v1.Post("/admin/courses", adminOnly, courseHandler.Create)

	// Certificates: issuance requires object storage
	if storage != nil {
		certificateService := services.NewCertificateService(db, storage, trackingService, logger)
		certificateHandler := certificate_handlers.NewCertificateHandler(certificateService)
		v1.Post("/certificates/issue", certificateHandler.Issue)
		v1.Get("/certificates/:serial/download", certificateHandler.Download)
	}
}
