package services

import (
	"context"
	"errors"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/metrics"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/security"

	"github.com/google/uuid"
)

var (
	ErrListingNotFound = errors.New("internship not found")
	ErrListingInactive = errors.New("internship is not active")
	ErrDeadlinePassed  = errors.New("application deadline has passed")
)

type InternshipService struct {
	Internships  *repository.InternshipRepository
	Saved        *repository.SavedInternshipRepository
	Applications *repository.ApplicationRepository
	Sanitizer    *security.Sanitizer
	Metrics      *metrics.Collector
}

func NewInternshipService(ir *repository.InternshipRepository, sr *repository.SavedInternshipRepository,
	ar *repository.ApplicationRepository, san *security.Sanitizer, m *metrics.Collector) *InternshipService {
	return &InternshipService{Internships: ir, Saved: sr, Applications: ar, Sanitizer: san, Metrics: m}
}

type InternshipInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Field        string     `json:"field"`
	Location     *string    `json:"location"`
	WorkType     string     `json:"work_type"`
	IsPaid       bool       `json:"is_paid"`
	Stipend      *string    `json:"stipend"`
	Duration     *string    `json:"duration"`
	Requirements []string   `json:"requirements"`
	Deadline     *time.Time `json:"application_deadline"`
}

func (s *InternshipService) buildListing(orgID uuid.UUID, in InternshipInput) (*model.Internship, error) {
	title := s.Sanitizer.Clean(in.Title)
	description := s.Sanitizer.Clean(in.Description)
	field := s.Sanitizer.Clean(in.Field)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if description == "" {
		return nil, errors.New("description is required")
	}
	if field == "" {
		return nil, errors.New("field is required")
	}
	workType := model.WorkType(in.WorkType)
	if in.WorkType == "" {
		workType = model.WorkOnsite
	}
	if !workType.Valid() {
		return nil, errors.New("work_type must be remote, onsite or hybrid")
	}

	listing := &model.Internship{
		OrganizationID: orgID,
		Title:          title,
		Description:    description,
		Field:          field,
		Location:       in.Location,
		WorkType:       workType,
		IsPaid:         in.IsPaid,
		Stipend:        in.Stipend,
		Duration:       in.Duration,
		Requirements:   s.Sanitizer.CleanAll(in.Requirements),
		Deadline:       in.Deadline,
		IsActive:       true,
	}
	return listing, nil
}

// Post creates a listing owned by orgID.
func (s *InternshipService) Post(ctx context.Context, orgID uuid.UUID, in InternshipInput) (*model.Internship, error) {
	listing, err := s.buildListing(orgID, in)
	if err != nil {
		return nil, err
	}
	id, err := s.Internships.Create(ctx, listing)
	if err != nil {
		return nil, err
	}
	s.Metrics.InternshipPosted()
	return s.Internships.GetByID(ctx, id)
}

// Update rewrites an existing listing; ownership is enforced by the
// repository's organization guard.
func (s *InternshipService) Update(ctx context.Context, orgID, id uuid.UUID, in InternshipInput) (*model.Internship, error) {
	listing, err := s.buildListing(orgID, in)
	if err != nil {
		return nil, err
	}
	listing.ID = id
	if err := s.Internships.Update(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return s.Internships.GetByID(ctx, id)
}

// Deactivate pulls the organization's own listing from public browsing.
func (s *InternshipService) Deactivate(ctx context.Context, orgID, id uuid.UUID) error {
	err := s.Internships.SetActive(ctx, id, orgID, false)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrListingNotFound
	}
	return err
}

// Search lists active listings matching the public browse filters.
func (s *InternshipService) Search(ctx context.Context, query, field, workType string) ([]model.Internship, error) {
	wt := model.WorkType(workType)
	if workType != "" && !wt.Valid() {
		return nil, errors.New("work_type must be remote, onsite or hybrid")
	}
	return s.Internships.Search(ctx, repository.SearchFilter{
		Query:      query,
		Field:      field,
		WorkType:   wt,
		ActiveOnly: true,
	})
}

func (s *InternshipService) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Internship, error) {
	return s.Internships.ListByOrganization(ctx, orgID)
}

// Details is a listing plus the viewing student's relationship to it.
type Details struct {
	Internship *model.Internship `json:"internship"`
	Saved      bool              `json:"saved"`
	Applied    bool              `json:"applied"`
}

// GetDetails fetches one listing. When viewer identifies a student, the
// saved/applied flags are filled in for that student.
func (s *InternshipService) GetDetails(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*Details, error) {
	listing, err := s.Internships.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	d := &Details{Internship: listing}
	if viewer != nil {
		if d.Saved, err = s.Saved.Exists(ctx, id, *viewer); err != nil {
			return nil, err
		}
		if d.Applied, err = s.Applications.Exists(ctx, id, *viewer); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ListAllForModeration returns every listing, active or not, for the admin
// moderation table.
func (s *InternshipService) ListAllForModeration(ctx context.Context) ([]model.Internship, error) {
	return s.Internships.ListAll(ctx)
}

// ModerateSetActive flips a listing's visibility without an ownership check.
func (s *InternshipService) ModerateSetActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := s.Internships.SetActive(ctx, id, uuid.Nil, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrListingNotFound
	}
	return err
}

// ModerateDelete removes a listing outright.
func (s *InternshipService) ModerateDelete(ctx context.Context, id uuid.UUID) error {
	err := s.Internships.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrListingNotFound
	}
	return err
}
