package repository

import (
	"context"
	"errors"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, username, email, role, full_name, field, skills, cv_url,
	organization_name, organization_description, organization_website, organization_logo_url,
	created_at, updated_at`

type ProfileRepository struct {
	DB *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.Role, &p.FullName, &p.Field, &p.Skills, &p.CVURL,
		&p.OrganizationName, &p.OrganizationDescription, &p.OrganizationWebsite, &p.OrganizationLogoURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts the profile row created once at sign-up.
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, username, email, role, full_name)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.DB.Exec(ctx, query, p.ID, p.Username, p.Email, p.Role, p.FullName); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	return scanProfile(r.DB.QueryRow(ctx, query, id))
}

// EmailByUsername resolves the sign-in email for a username.
func (r *ProfileRepository) EmailByUsername(ctx context.Context, username string) (string, error) {
	var email string
	query := `SELECT email FROM profiles WHERE username=$1`
	if err := r.DB.QueryRow(ctx, query, username).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return email, nil
}

func (r *ProfileRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE username=$1)`
	if err := r.DB.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStudent updates the student-owned fields on the owner's row.
func (r *ProfileRepository) UpdateStudent(ctx context.Context, id uuid.UUID, fullName, field *string, skills []string) error {
	query := `
		UPDATE profiles
		SET full_name=$1, field=$2, skills=$3, updated_at=$4
		WHERE id=$5 AND role='student'
	`
	tag, err := r.DB.Exec(ctx, query, fullName, field, skills, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrganization updates the organization-owned fields on the owner's row.
func (r *ProfileRepository) UpdateOrganization(ctx context.Context, id uuid.UUID, name, description, website *string) error {
	query := `
		UPDATE profiles
		SET organization_name=$1, organization_description=$2, organization_website=$3, updated_at=$4
		WHERE id=$5 AND role='organization'
	`
	tag, err := r.DB.Exec(ctx, query, name, description, website, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) SetCVURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE profiles SET cv_url=$1, updated_at=$2 WHERE id=$3 AND role='student'`,
		url, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) SetLogoURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE profiles SET organization_logo_url=$1, updated_at=$2 WHERE id=$3 AND role='organization'`,
		url, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE role=$1`, role).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListOrganizations returns the oldest organizations first, for the public
// featured-organizations strip.
func (r *ProfileRepository) ListOrganizations(ctx context.Context, limit int) ([]model.Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE role='organization'
		ORDER BY created_at ASC
		LIMIT $1`
	rows, err := r.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
