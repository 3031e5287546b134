package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/metrics"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/security"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var (
	ErrAlreadyApplied      = errors.New("already applied to this internship")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidStatus       = errors.New("status must be pending, accepted or rejected")
)

type ApplicationService struct {
	Applications *repository.ApplicationRepository
	Internships  *repository.InternshipRepository
	Sanitizer    *security.Sanitizer
	Metrics      *metrics.Collector
}

func NewApplicationService(ar *repository.ApplicationRepository, ir *repository.InternshipRepository,
	san *security.Sanitizer, m *metrics.Collector) *ApplicationService {
	return &ApplicationService{Applications: ar, Internships: ir, Sanitizer: san, Metrics: m}
}

// Apply submits a student's application: the listing must exist, be active,
// have an open deadline, and not already carry an application from this
// student.
func (s *ApplicationService) Apply(ctx context.Context, studentID, internshipID uuid.UUID, coverLetter *string) (uuid.UUID, error) {
	listing, err := s.Internships.GetByID(ctx, internshipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrListingNotFound
		}
		return uuid.Nil, err
	}
	if !listing.IsActive {
		return uuid.Nil, ErrListingInactive
	}
	if listing.Deadline != nil && listing.Deadline.Before(time.Now()) {
		return uuid.Nil, ErrDeadlinePassed
	}

	if coverLetter != nil {
		cleaned := s.Sanitizer.Clean(*coverLetter)
		coverLetter = &cleaned
	}
	id, err := s.Applications.Create(ctx, internshipID, studentID, coverLetter)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, ErrAlreadyApplied
		}
		return uuid.Nil, err
	}
	s.Metrics.ApplicationSubmitted()
	return id, nil
}

func (s *ApplicationService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Application, error) {
	return s.Applications.ListByStudent(ctx, studentID)
}

func (s *ApplicationService) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Application, error) {
	return s.Applications.ListByOrganization(ctx, orgID)
}

// UpdateStatus moves one application between pending/accepted/rejected. Only
// the organization owning the listing may do it.
func (s *ApplicationService) UpdateStatus(ctx context.Context, orgID, applicationID uuid.UUID, status model.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	err := s.Applications.UpdateStatus(ctx, applicationID, orgID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrApplicationNotFound
	}
	return err
}

// ExportApplicants renders the organization's applicant list as a
// spreadsheet, one row per application.
func (s *ApplicationService) ExportApplicants(ctx context.Context, orgID uuid.UUID) (*excelize.File, error) {
	apps, err := s.Applications.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Applicants"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Internship", "Username", "Full Name", "Email", "Status", "CV", "Applied At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, a := range apps {
		values := []any{
			deref(a.InternshipTitle),
			deref(a.StudentUsername),
			deref(a.StudentFullName),
			deref(a.StudentEmail),
			string(a.Status),
			deref(a.StudentCVURL),
			"",
		}
		if a.CreatedAt != nil {
			values[6] = a.CreatedAt.Format(time.RFC3339)
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("build cell name: %w", err)
			}
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
