package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/model"
	"github.com/learnloop/api/services"
	"github.com/learnloop/api/utils/response"
	"github.com/learnloop/api/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler handles catalog and enrollment requests
type CourseHandler struct {
	db        *gorm.DB
	tracking  *services.TrackingService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, tracking *services.TrackingService) *CourseHandler {
	return &CourseHandler{
		db:        db,
		tracking:  tracking,
		validator: validation.NewValidator(),
	}
}

// List handles GET /api/v1/courses
func (h *CourseHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := h.db.Where("published = ?", true).Order("title ASC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []model.Course
	if err := query.Limit(limit).Offset(offset).Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// Get handles GET /api/v1/courses/:slug
func (h *CourseHandler) Get(c *fiber.Ctx) error {
	var course model.Course
	err := h.db.Where("slug = ?", c.Params("slug")).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Course not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourseRequest is the POST /courses body (admin only)
type CreateCourseRequest struct {
	Slug          string `json:"slug" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	PriceCents    int64  `json:"priceCents" validate:"gte=0"`
	Currency      string `json:"currency"`
	DurationHours int    `json:"durationHours" validate:"gte=0"`
	Published     bool   `json:"published"`
}

// Create handles POST /api/v1/admin/courses
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	course := model.Course{
		Slug:          req.Slug,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PriceCents:    req.PriceCents,
		Currency:      req.Currency,
		DurationHours: req.DurationHours,
		Published:     req.Published,
	}
	if course.Currency == "" {
		course.Currency = "usd"
	}

	if err := h.db.Create(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A course with this slug already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// EnrollRequest is the POST /courses/:slug/enroll body. The identity provider
// owns the user id; payment-session creation happens with the payment
// processor before this call.
type EnrollRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Enroll handles POST /api/v1/courses/:slug/enroll. Enrollment is recorded as
// a zero-progress tracking update, which creates the progress record and the
// course_enrollment interaction.
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	slug := c.Params("slug")
	var course model.Course
	err := h.db.Where("slug = ? AND published = ?", slug, true).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Course not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch course")
	}

	record, err := h.tracking.TrackProgress(c.Context(), services.ProgressInput{
		UserID:   req.UserID,
		CourseID: slug,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to enroll")
	}

	return response.Created(c, record)
}
