package services

import (
	"context"
	"errors"

	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"

	"github.com/google/uuid"
)

var ErrNotSaved = errors.New("internship is not in the saved list")

type SavedInternshipService struct {
	Saved       *repository.SavedInternshipRepository
	Internships *repository.InternshipRepository
}

func NewSavedInternshipService(sr *repository.SavedInternshipRepository, ir *repository.InternshipRepository) *SavedInternshipService {
	return &SavedInternshipService{Saved: sr, Internships: ir}
}

// Save bookmarks a listing for the student. Saving twice is fine.
func (s *SavedInternshipService) Save(ctx context.Context, studentID, internshipID uuid.UUID) error {
	if _, err := s.Internships.GetByID(ctx, internshipID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	return s.Saved.Save(ctx, internshipID, studentID)
}

func (s *SavedInternshipService) Unsave(ctx context.Context, studentID, internshipID uuid.UUID) error {
	err := s.Saved.Unsave(ctx, internshipID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotSaved
	}
	return err
}

func (s *SavedInternshipService) List(ctx context.Context, studentID uuid.UUID) ([]model.SavedInternship, error) {
	return s.Saved.ListByStudent(ctx, studentID)
}
