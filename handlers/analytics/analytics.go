package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/model"
	"github.com/learnloop/api/services"
	"github.com/learnloop/api/utils/cache"
	"github.com/learnloop/api/utils/response"
	"github.com/learnloop/api/utils/validation"
	"github.com/sirupsen/logrus"
)

const (
	defaultRangeDays  = 30
	dashboardCacheTTL = 60 * time.Second
)

// AnalyticsHandler handles event tracking and analytics read requests
type AnalyticsHandler struct {
	tracking  *services.TrackingService
	dashboard *services.DashboardService
	cache     *cache.RedisCache
	validator *validation.Validator
	log       *logrus.Logger
}

// NewAnalyticsHandler creates a new analytics handler. cache may be nil, in
// which case dashboard reads always hit the store.
func NewAnalyticsHandler(tracking *services.TrackingService, dashboard *services.DashboardService, redisCache *cache.RedisCache, log *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		tracking:  tracking,
		dashboard: dashboard,
		cache:     redisCache,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// parseDateRange reads the startDate/endDate query parameters (ISO-8601,
// date-only or full timestamps) and returns the closed interval to aggregate
// over. A date-only endDate extends to the end of that day. Defaults to the
// trailing 30 days.
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -defaultRangeDays)
	end := now

	if raw := c.Query("startDate"); raw != "" {
		parsed, _, err := parseISODate(raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid startDate %q", raw)
		}
		start = parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, dateOnly, err := parseISODate(raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid endDate %q", raw)
		}
		if dateOnly {
			parsed = parsed.AddDate(0, 0, 1).Add(-time.Second)
		}
		end = parsed
	}

	if end.Before(start) {
		return start, end, errors.New("endDate must not precede startDate")
	}
	return start, end, nil
}

func parseISODate(raw string) (time.Time, bool, error) {
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), true, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed.UTC(), false, nil
}

// TrackRevenueRequest is the POST /track/revenue body
type TrackRevenueRequest struct {
	UserID          string                 `json:"userId" validate:"required"`
	CourseID        string                 `json:"courseId" validate:"required"`
	Amount          float64                `json:"amount" validate:"required,gt=0"`
	Currency        string                 `json:"currency"`
	PaymentMethod   string                 `json:"paymentMethod"`
	StripeSessionID string                 `json:"stripeSessionId"`
	Status          string                 `json:"status" validate:"required,oneof=completed pending failed refunded"`
	CompletedAt     *time.Time             `json:"completedAt"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// TrackRevenue handles POST /api/v1/analytics/track/revenue
func (h *AnalyticsHandler) TrackRevenue(c *fiber.Ctx) error {
	var req TrackRevenueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	tx, err := h.tracking.TrackRevenue(c.Context(), services.RevenueInput{
		UserID:          req.UserID,
		CourseID:        req.CourseID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethod:   req.PaymentMethod,
		StripeSessionID: req.StripeSessionID,
		Status:          model.TransactionStatus(req.Status),
		CompletedAt:     req.CompletedAt,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to track revenue transaction")
		return response.InternalServerError(c, "Failed to record transaction")
	}

	return response.Created(c, tx)
}

// RefundTransaction handles POST /api/v1/analytics/track/revenue/:id/refund
func (h *AnalyticsHandler) RefundTransaction(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid transaction id")
	}

	tx, err := h.tracking.RefundTransaction(c.Context(), uint(id))
	if errors.Is(err, services.ErrTransactionNotFound) {
		return response.NotFound(c, "Transaction not found")
	}
	if err != nil {
		h.log.WithError(err).Error("failed to refund transaction")
		return response.InternalServerError(c, "Failed to refund transaction")
	}

	return response.Success(c, tx)
}

// TrackSessionRequest is the POST /track/session body
type TrackSessionRequest struct {
	UserID          string     `json:"userId" validate:"required"`
	SessionStart    *time.Time `json:"sessionStart"`
	SessionEnd      *time.Time `json:"sessionEnd"`
	Duration        int        `json:"duration" validate:"gte=0"`
	PageViews       int        `json:"pageViews" validate:"gte=0"`
	CoursesAccessed int        `json:"coursesAccessed" validate:"gte=0"`
	DeviceType      string     `json:"deviceType" validate:"omitempty,oneof=desktop mobile tablet"`
	Browser         string     `json:"browser"`
	Location        string     `json:"location"`
	Referrer        string     `json:"referrer"`
}

// TrackSession handles POST /api/v1/analytics/track/session
func (h *AnalyticsHandler) TrackSession(c *fiber.Ctx) error {
	var req TrackSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	session, err := h.tracking.TrackSession(c.Context(), services.SessionInput{
		UserID:          req.UserID,
		SessionStart:    req.SessionStart,
		SessionEnd:      req.SessionEnd,
		Duration:        req.Duration,
		PageViews:       req.PageViews,
		CoursesAccessed: req.CoursesAccessed,
		DeviceType:      model.DeviceType(req.DeviceType),
		Browser:         req.Browser,
		Location:        req.Location,
		Referrer:        req.Referrer,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to track session")
		return response.InternalServerError(c, "Failed to record session")
	}

	return response.Created(c, session)
}

// EndSessionRequest is the POST /track/session/:id/end body
type EndSessionRequest struct {
	SessionEnd *time.Time `json:"sessionEnd"`
}

// EndSession handles POST /api/v1/analytics/track/session/:id/end
func (h *AnalyticsHandler) EndSession(c *fiber.Ctx) error {
	var req EndSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	session, err := h.tracking.EndSession(c.Context(), c.Params("id"), req.SessionEnd)
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Session not found")
	}
	if err != nil {
		h.log.WithError(err).Error("failed to end session")
		return response.InternalServerError(c, "Failed to end session")
	}

	return response.Success(c, session)
}

// TrackProgressRequest is the POST /track/progress body
type TrackProgressRequest struct {
	UserID    string `json:"userId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Progress  int    `json:"progress" validate:"gte=0,lte=100"`
	TimeSpent int    `json:"timeSpent" validate:"gte=0"`
}

// TrackProgress handles POST /api/v1/analytics/track/progress
func (h *AnalyticsHandler) TrackProgress(c *fiber.Ctx) error {
	var req TrackProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	record, err := h.tracking.TrackProgress(c.Context(), services.ProgressInput{
		UserID:    req.UserID,
		CourseID:  req.CourseID,
		Progress:  req.Progress,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to track progress")
		return response.InternalServerError(c, "Failed to record progress")
	}

	return response.Success(c, record)
}

// TrackInteractionRequest is the POST /track/interaction body
type TrackInteractionRequest struct {
	UserID          string                 `json:"userId" validate:"required"`
	CourseID        string                 `json:"courseId" validate:"required"`
	InteractionType string                 `json:"interactionType" validate:"required"`
	Timestamp       *time.Time             `json:"timestamp"`
	Duration        *int                   `json:"duration"`
	Progress        *int                   `json:"progress"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// TrackInteraction handles POST /api/v1/analytics/track/interaction
func (h *AnalyticsHandler) TrackInteraction(c *fiber.Ctx) error {
	var req TrackInteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	interaction, err := h.tracking.TrackInteraction(c.Context(), services.InteractionInput{
		UserID:          req.UserID,
		CourseID:        req.CourseID,
		InteractionType: model.InteractionType(req.InteractionType),
		Timestamp:       req.Timestamp,
		Duration:        req.Duration,
		Progress:        req.Progress,
		Metadata:        req.Metadata,
	})
	if errors.Is(err, services.ErrInvalidInteractionType) {
		return response.BadRequest(c, err.Error())
	}
	if err != nil {
		h.log.WithError(err).Error("failed to track interaction")
		return response.InternalServerError(c, "Failed to record interaction")
	}

	return response.Created(c, interaction)
}

// GetRevenue handles GET /api/v1/analytics/revenue
func (h *AnalyticsHandler) GetRevenue(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	analytics, err := h.dashboard.Revenue().GetRevenueAnalytics(c.Context(), start, end)
	if err != nil {
		h.log.WithError(err).Error("failed to compute revenue analytics")
		return response.InternalServerError(c, "Failed to fetch revenue analytics")
	}

	return response.Success(c, analytics)
}

// GetEngagement handles GET /api/v1/analytics/engagement
func (h *AnalyticsHandler) GetEngagement(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	metrics, err := h.dashboard.Engagement().GetEngagementMetrics(c.Context(), start, end)
	if err != nil {
		h.log.WithError(err).Error("failed to compute engagement metrics")
		return response.InternalServerError(c, "Failed to fetch engagement metrics")
	}

	return response.Success(c, metrics)
}

// GetContent handles GET /api/v1/analytics/content
func (h *AnalyticsHandler) GetContent(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	performance, err := h.dashboard.Content().GetContentPerformance(c.Context(), start, end)
	if err != nil {
		h.log.WithError(err).Error("failed to compute content performance")
		return response.InternalServerError(c, "Failed to fetch content performance")
	}

	return response.Success(c, performance)
}

// GetDashboard handles GET /api/v1/analytics/dashboard. The composed read
// model is cached briefly in Redis; cache failures fall through to the store.
func (h *AnalyticsHandler) GetDashboard(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	cacheKey := fmt.Sprintf("dashboard:%d:%d", start.Unix(), end.Unix())
	if h.cache != nil {
		var cached services.Dashboard
		if err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil {
			return response.Success(c, &cached)
		} else if !errors.Is(err, cache.ErrNotFound) {
			h.log.WithError(err).Warn("dashboard cache read failed")
		}
	}

	dashboard, err := h.dashboard.GetDashboard(c.Context(), start, end)
	if err != nil {
		h.log.WithError(err).Error("failed to compose dashboard")
		return response.InternalServerError(c, "Failed to fetch dashboard")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(c.Context(), cacheKey, dashboard, dashboardCacheTTL); err != nil {
			h.log.WithError(err).Warn("dashboard cache write failed")
		}
	}

	return response.Success(c, dashboard)
}

// GenerateDailyRequest is the POST /generate-daily body
type GenerateDailyRequest struct {
	Date string `json:"date"`
}

// GenerateDaily handles POST /api/v1/analytics/generate-daily. The date
// defaults to today (UTC) when the body omits it.
func (h *AnalyticsHandler) GenerateDaily(c *fiber.Ctx) error {
	var req GenerateDailyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return response.BadRequest(c, fmt.Sprintf("invalid date %q", req.Date))
		}
		date = parsed
	}

	rollup, err := h.dashboard.GenerateDaily(c.Context(), date)
	if err != nil {
		h.log.WithError(err).Error("failed to generate daily rollup")
		return response.InternalServerError(c, "Failed to generate daily analytics")
	}

	return response.Success(c, rollup)
}
