package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/frontenddevmichael/openrole-connect/external/localstore"
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/security"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBadFileType     = errors.New("unsupported file type")
)

var (
	cvExtensions   = map[string]bool{".pdf": true}
	logoExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}
)

type ProfileService struct {
	Profiles  *repository.ProfileRepository
	Storage   *localstore.Store
	Sanitizer *security.Sanitizer
}

func NewProfileService(pr *repository.ProfileRepository, storage *localstore.Store, san *security.Sanitizer) *ProfileService {
	return &ProfileService{Profiles: pr, Storage: storage, Sanitizer: san}
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

type StudentProfileInput struct {
	FullName *string  `json:"full_name"`
	Field    *string  `json:"field"`
	Skills   []string `json:"skills"`
}

// UpdateStudent rewrites the owner-editable student fields.
func (s *ProfileService) UpdateStudent(ctx context.Context, id uuid.UUID, in StudentProfileInput) (*model.Profile, error) {
	in.FullName = s.cleanPtr(in.FullName)
	in.Field = s.cleanPtr(in.Field)
	skills := s.Sanitizer.CleanAll(in.Skills)

	if err := s.Profiles.UpdateStudent(ctx, id, in.FullName, in.Field, skills); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

type OrganizationProfileInput struct {
	Name        *string `json:"organization_name"`
	Description *string `json:"organization_description"`
	Website     *string `json:"organization_website"`
}

// UpdateOrganization rewrites the owner-editable organization fields. The
// website must be an absolute http(s) URL.
func (s *ProfileService) UpdateOrganization(ctx context.Context, id uuid.UUID, in OrganizationProfileInput) (*model.Profile, error) {
	in.Name = s.cleanPtr(in.Name)
	in.Description = s.cleanPtr(in.Description)
	if in.Website != nil && *in.Website != "" {
		u, err := url.Parse(*in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, errors.New("organization_website must be an http(s) URL")
		}
	}

	if err := s.Profiles.UpdateOrganization(ctx, id, in.Name, in.Description, in.Website); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// UploadCV stores a student's CV and records its public URL on the profile.
func (s *ProfileService) UploadCV(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (string, error) {
	return s.upload(ctx, id, filename, r, "cvs", cvExtensions, s.Profiles.SetCVURL)
}

// UploadLogo stores an organization's logo and records its public URL.
func (s *ProfileService) UploadLogo(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (string, error) {
	return s.upload(ctx, id, filename, r, "logos", logoExtensions, s.Profiles.SetLogoURL)
}

func (s *ProfileService) upload(ctx context.Context, id uuid.UUID, filename string, r io.Reader,
	bucket string, allowed map[string]bool, record func(context.Context, uuid.UUID, string) error) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return "", ErrBadFileType
	}
	publicURL, err := s.Storage.Upload(ctx, bucket, ext, r)
	if err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}
	if err := record(ctx, id, publicURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return publicURL, nil
}

func (s *ProfileService) cleanPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := s.Sanitizer.Clean(*v)
	return &cleaned
}
