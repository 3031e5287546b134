package services

import (
	"context"

	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"

	"github.com/google/uuid"
)

type StatsService struct {
	Internships  *repository.InternshipRepository
	Profiles     *repository.ProfileRepository
	Applications *repository.ApplicationRepository
	Saved        *repository.SavedInternshipRepository
}

func NewStatsService(ir *repository.InternshipRepository, pr *repository.ProfileRepository,
	ar *repository.ApplicationRepository, sr *repository.SavedInternshipRepository) *StatsService {
	return &StatsService{Internships: ir, Profiles: pr, Applications: ar, Saved: sr}
}

// HomeStats backs the public landing page.
type HomeStats struct {
	ActiveInternships       int                `json:"active_internships"`
	RegisteredStudents      int                `json:"registered_students"`
	RegisteredOrganizations int                `json:"registered_organizations"`
	Latest                  []model.Internship `json:"latest_internships"`
	FeaturedOrganizations   []model.Profile    `json:"featured_organizations"`
}

func (s *StatsService) Home(ctx context.Context) (*HomeStats, error) {
	stats := &HomeStats{}
	var err error

	if stats.ActiveInternships, err = s.Internships.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.RegisteredStudents, err = s.Profiles.CountByRole(ctx, model.RoleStudent); err != nil {
		return nil, err
	}
	if stats.RegisteredOrganizations, err = s.Profiles.CountByRole(ctx, model.RoleOrganization); err != nil {
		return nil, err
	}
	if stats.Latest, err = s.Internships.Search(ctx, repository.SearchFilter{ActiveOnly: true, Limit: 6}); err != nil {
		return nil, err
	}
	if stats.FeaturedOrganizations, err = s.Profiles.ListOrganizations(ctx, 6); err != nil {
		return nil, err
	}
	return stats, nil
}

type StudentStats struct {
	Saved   int `json:"saved"`
	Applied int `json:"applied"`
}

func (s *StatsService) StudentDashboard(ctx context.Context, studentID uuid.UUID) (*StudentStats, error) {
	saved, err := s.Saved.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Applications.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &StudentStats{Saved: saved, Applied: applied}, nil
}

type OrganizationStats struct {
	Internships int `json:"internships"`
	Applicants  int `json:"applicants"`
}

func (s *StatsService) OrganizationDashboard(ctx context.Context, orgID uuid.UUID) (*OrganizationStats, error) {
	listings, err := s.Internships.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	applicants, err := s.Applications.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &OrganizationStats{Internships: listings, Applicants: applicants}, nil
}

type AdminStats struct {
	ActiveInternships int `json:"active_internships"`
	Students          int `json:"students"`
	Organizations     int `json:"organizations"`
}

func (s *StatsService) AdminOverview(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error
	if stats.ActiveInternships, err = s.Internships.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.Students, err = s.Profiles.CountByRole(ctx, model.RoleStudent); err != nil {
		return nil, err
	}
	if stats.Organizations, err = s.Profiles.CountByRole(ctx, model.RoleOrganization); err != nil {
		return nil, err
	}
	return stats, nil
}
