package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InternshipRepository struct {
	DB *pgxpool.Pool
}

func NewInternshipRepository(db *pgxpool.Pool) *InternshipRepository {
	return &InternshipRepository{DB: db}
}

// SearchFilter narrows Search. Zero values mean "no constraint".
type SearchFilter struct {
	Query      string // matches title or field, case-insensitive
	Field      string
	WorkType   model.WorkType
	ActiveOnly bool
	Limit      int
}

const internshipColumns = `i.id, i.organization_id, i.title, i.description, i.field, i.location,
	i.work_type, i.is_paid, i.stipend, i.duration, i.requirements, i.application_deadline,
	i.is_active, i.created_at, i.updated_at, p.organization_name, p.username`

func scanInternship(row pgx.Row) (*model.Internship, error) {
	var in model.Internship
	err := row.Scan(&in.ID, &in.OrganizationID, &in.Title, &in.Description, &in.Field, &in.Location,
		&in.WorkType, &in.IsPaid, &in.Stipend, &in.Duration, &in.Requirements, &in.Deadline,
		&in.IsActive, &in.CreatedAt, &in.UpdatedAt, &in.OrganizationName, &in.OrganizationUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func (r *InternshipRepository) Create(ctx context.Context, in *model.Internship) (uuid.UUID, error) {
	var id uuid.UUID
	query := `
		INSERT INTO internships
			(organization_id, title, description, field, location, work_type,
			 is_paid, stipend, duration, requirements, application_deadline, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		RETURNING id
	`
	err := r.DB.QueryRow(ctx, query,
		in.OrganizationID, in.Title, in.Description, in.Field, in.Location, in.WorkType,
		in.IsPaid, in.Stipend, in.Duration, in.Requirements, in.Deadline,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *InternshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Internship, error) {
	query := `SELECT ` + internshipColumns + `
		FROM internships i
		JOIN profiles p ON p.id = i.organization_id
		WHERE i.id=$1`
	return scanInternship(r.DB.QueryRow(ctx, query, id))
}

// Search lists internships matching the filter, newest first.
func (r *InternshipRepository) Search(ctx context.Context, f SearchFilter) ([]model.Internship, error) {
	query := `SELECT ` + internshipColumns + `
		FROM internships i
		JOIN profiles p ON p.id = i.organization_id
		WHERE 1=1`
	args := []any{}

	if f.ActiveOnly {
		query += ` AND i.is_active`
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		query += fmt.Sprintf(` AND (i.title ILIKE $%d OR i.field ILIKE $%d)`, len(args), len(args))
	}
	if f.Field != "" {
		args = append(args, f.Field)
		query += fmt.Sprintf(` AND i.field = $%d`, len(args))
	}
	if f.WorkType != "" {
		args = append(args, f.WorkType)
		query += fmt.Sprintf(` AND i.work_type = $%d`, len(args))
	}
	query += ` ORDER BY i.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInternships(rows)
}

func (r *InternshipRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Internship, error) {
	query := `SELECT ` + internshipColumns + `
		FROM internships i
		JOIN profiles p ON p.id = i.organization_id
		WHERE i.organization_id=$1
		ORDER BY i.created_at DESC`
	rows, err := r.DB.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInternships(rows)
}

// ListAll returns every listing with its organization, for moderation.
func (r *InternshipRepository) ListAll(ctx context.Context) ([]model.Internship, error) {
	query := `SELECT ` + internshipColumns + `
		FROM internships i
		JOIN profiles p ON p.id = i.organization_id
		ORDER BY i.created_at DESC`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInternships(rows)
}

// Update rewrites the mutable fields. The organization_id guard keeps an
// organization from touching another organization's listing.
func (r *InternshipRepository) Update(ctx context.Context, in *model.Internship) error {
	query := `
		UPDATE internships
		SET title=$1, description=$2, field=$3, location=$4, work_type=$5,
			is_paid=$6, stipend=$7, duration=$8, requirements=$9,
			application_deadline=$10, updated_at=$11
		WHERE id=$12 AND organization_id=$13
	`
	tag, err := r.DB.Exec(ctx, query,
		in.Title, in.Description, in.Field, in.Location, in.WorkType,
		in.IsPaid, in.Stipend, in.Duration, in.Requirements, in.Deadline, time.Now(),
		in.ID, in.OrganizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips is_active. Pass uuid.Nil as orgID to skip the ownership
// guard (admin moderation).
func (r *InternshipRepository) SetActive(ctx context.Context, id, orgID uuid.UUID, active bool) error {
	query := `UPDATE internships SET is_active=$1, updated_at=$2 WHERE id=$3`
	args := []any{active, time.Now(), id}
	if orgID != uuid.Nil {
		query += ` AND organization_id=$4`
		args = append(args, orgID)
	}
	tag, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing outright (admin moderation only; organizations
// deactivate instead).
func (r *InternshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM internships WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InternshipRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM internships WHERE is_active`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *InternshipRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM internships WHERE organization_id=$1`, orgID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectInternships(rows pgx.Rows) ([]model.Internship, error) {
	out := []model.Internship{}
	for rows.Next() {
		in, err := scanInternship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}
