package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/repository"
	"github.com/frontenddevmichael/openrole-connect/internal/session"

	"github.com/google/uuid"
)

// ProfileSource adapts the profiles repository to the session store,
// translating storage errors into the session error taxonomy.
type ProfileSource struct {
	repo *repository.ProfileRepository
}

func NewProfileSource(repo *repository.ProfileRepository) *ProfileSource {
	return &ProfileSource{repo: repo}
}

func (p *ProfileSource) ProfileByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	prof, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Identity without a profile: the inconsistent sign-up leftover.
			return nil, fmt.Errorf("profile missing for identity %s", id)
		}
		return nil, fmt.Errorf("%w: loading profile: %v", session.ErrServiceUnavailable, err)
	}
	return prof, nil
}

func (p *ProfileSource) CreateProfile(ctx context.Context, prof *model.Profile) error {
	if err := p.repo.Create(ctx, prof); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return session.ErrDuplicateProfile
		}
		return fmt.Errorf("%w: creating profile: %v", session.ErrServiceUnavailable, err)
	}
	return nil
}

// EmailByUsername resolves the sign-in email. A miss reports invalid
// credentials so a caller cannot probe which usernames exist.
func (p *ProfileSource) EmailByUsername(ctx context.Context, username string) (string, error) {
	email, err := p.repo.EmailByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", session.ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: resolving username: %v", session.ErrServiceUnavailable, err)
	}
	return email, nil
}

func (p *ProfileSource) UsernameExists(ctx context.Context, username string) (bool, error) {
	return p.repo.UsernameExists(ctx, username)
}
