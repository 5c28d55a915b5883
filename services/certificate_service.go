package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/api/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrCourseNotCompleted is returned when issuing a certificate for an unfinished course
	ErrCourseNotCompleted = errors.New("course not completed")

	// ErrCertificateNotFound is returned for unknown serial numbers
	ErrCertificateNotFound = errors.New("certificate not found")
)

// certificateStorage is the slice of the object-storage client the
// certificate service needs
type certificateStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// CertificateService issues completion certificates: it renders the artifact,
// uploads it to object storage and flips the certificateIssued flag on the
// progress record
type CertificateService struct {
	db       *gorm.DB
	storage  certificateStorage
	tracking *TrackingService
	log      *logrus.Logger
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB, storage certificateStorage, tracking *TrackingService, log *logrus.Logger) *CertificateService {
	return &CertificateService{
		db:       db,
		storage:  storage,
		tracking: tracking,
		log:      log,
	}
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Certificate of Completion</title></head>
<body>
  <h1>Certificate of Completion</h1>
  <p>This certifies that <strong>{{.UserID}}</strong> has completed</p>
  <h2>{{.CourseTitle}}</h2>
  <p>Completed on {{.CompletedOn}}</p>
  <p>Serial: {{.Serial}}</p>
</body>
</html>
`))

// Issue creates a certificate for a completed (user, course) pair. Issuing is
// idempotent: a second call returns the existing certificate.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	var existing model.Certificate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	var progress model.CourseProgress
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotCompleted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course progress: %w", err)
	}
	if !progress.IsCompleted {
		return nil, ErrCourseNotCompleted
	}

	// Course title for the artifact; the slug stands in when the catalog
	// has no entry for this course id.
	title := courseID
	var course model.Course
	if err := s.db.WithContext(ctx).Where("slug = ?", courseID).First(&course).Error; err == nil {
		title = course.Title
	}

	now := time.Now().UTC()
	completedOn := now
	if progress.CompletionDate != nil {
		completedOn = *progress.CompletionDate
	}

	serial := uuid.NewString()
	var rendered bytes.Buffer
	err = certificateTemplate.Execute(&rendered, map[string]interface{}{
		"UserID":      userID,
		"CourseTitle": title,
		"CompletedOn": completedOn.Format("January 2, 2006"),
		"Serial":      serial,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	key := fmt.Sprintf("certificates/%s.html", serial)
	url, err := s.storage.Upload(ctx, key, rendered.Bytes(), "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}

	certificate := &model.Certificate{
		UserID:       userID,
		CourseID:     courseID,
		SerialNumber: serial,
		StorageKey:   key,
		StorageURL:   url,
		IssuedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(certificate).Error; err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	progress.CertificateIssued = true
	if err := s.db.WithContext(ctx).Save(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to flag certificate issued: %w", err)
	}

	return certificate, nil
}

// Download fetches a certificate artifact by serial number. The
// certificate_download interaction is recorded best-effort: a tracking
// failure is logged and must never fail the download itself.
func (s *CertificateService) Download(ctx context.Context, serial string) (*model.Certificate, []byte, error) {
	var certificate model.Certificate
	err := s.db.WithContext(ctx).Where("serial_number = ?", serial).First(&certificate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}

	data, err := s.storage.Download(ctx, certificate.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch certificate artifact: %w", err)
	}

	_, err = s.tracking.TrackInteraction(ctx, InteractionInput{
		UserID:          certificate.UserID,
		CourseID:        certificate.CourseID,
		InteractionType: model.InteractionTypeCertificateDownload,
	})
	if err != nil {
		s.log.WithError(err).WithField("serial", serial).
			Warn("failed to record certificate_download interaction")
	}

	return &certificate, data, nil
}
