package certificate

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/services"
	"github.com/learnloop/api/utils/response"
	"github.com/learnloop/api/utils/validation"
)

// CertificateHandler handles certificate issuance and download
type CertificateHandler struct {
	certificates *services.CertificateService
	validator    *validation.Validator
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		validator:    validation.NewValidator(),
	}
}

// IssueRequest is the POST /certificates/issue body
type IssueRequest struct {
	UserID   string `json:"userId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

// Issue handles POST /api/v1/certificates/issue
func (h *CertificateHandler) Issue(c *fiber.Ctx) error {
	var req IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	certificate, err := h.certificates.Issue(c.Context(), req.UserID, req.CourseID)
	if errors.Is(err, services.ErrCourseNotCompleted) {
		return response.Conflict(c, "Course is not completed")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to issue certificate")
	}

	return response.Created(c, certificate)
}

// Download handles GET /api/v1/certificates/:serial/download
func (h *CertificateHandler) Download(c *fiber.Ctx) error {
	certificate, data, err := h.certificates.Download(c.Context(), c.Params("serial"))
	if errors.Is(err, services.ErrCertificateNotFound) {
		return response.NotFound(c, "Certificate not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch certificate")
	}

	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="certificate-`+certificate.SerialNumber+`.html"`)
	return c.Send(data)
}
