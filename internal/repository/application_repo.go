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

type ApplicationRepository struct {
	DB *pgxpool.Pool
}

func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, internshipID, studentID uuid.UUID, coverLetter *string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `
		INSERT INTO applications (internship_id, student_id, cover_letter, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id
	`
	if err := r.DB.QueryRow(ctx, query, internshipID, studentID, coverLetter).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrDuplicate
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ApplicationRepository) Exists(ctx context.Context, internshipID, studentID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM applications WHERE internship_id=$1 AND student_id=$2)`
	if err := r.DB.QueryRow(ctx, query, internshipID, studentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByStudent lists a student's applications with listing title and
// organization name joined in, newest first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Application, error) {
	query := `
		SELECT a.id, a.internship_id, a.student_id, a.cover_letter, a.status,
			a.created_at, a.updated_at, i.title, org.organization_name
		FROM applications a
		JOIN internships i ON i.id = a.internship_id
		JOIN profiles org ON org.id = i.organization_id
		WHERE a.student_id=$1
		ORDER BY a.created_at DESC
	`
	rows, err := r.DB.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Application{}
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.InternshipID, &a.StudentID, &a.CoverLetter, &a.Status,
			&a.CreatedAt, &a.UpdatedAt, &a.InternshipTitle, &a.OrganizationName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByOrganization lists every application against the organization's
// listings with applicant details joined in.
func (r *ApplicationRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Application, error) {
	query := `
		SELECT a.id, a.internship_id, a.student_id, a.cover_letter, a.status,
			a.created_at, a.updated_at, i.title,
			s.username, s.full_name, s.email, s.cv_url
		FROM applications a
		JOIN internships i ON i.id = a.internship_id
		JOIN profiles s ON s.id = a.student_id
		WHERE i.organization_id=$1
		ORDER BY a.created_at DESC
	`
	rows, err := r.DB.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Application{}
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.InternshipID, &a.StudentID, &a.CoverLetter, &a.Status,
			&a.CreatedAt, &a.UpdatedAt, &a.InternshipTitle,
			&a.StudentUsername, &a.StudentFullName, &a.StudentEmail, &a.StudentCVURL); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of one application, but only when the
// application belongs to a listing owned by orgID.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status model.ApplicationStatus) error {
	query := `
		UPDATE applications a
		SET status=$1, updated_at=$2
		FROM internships i
		WHERE a.id=$3 AND i.id = a.internship_id AND i.organization_id=$4
	`
	tag, err := r.DB.Exec(ctx, query, status, time.Now(), id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var a model.Application
	query := `SELECT id, internship_id, student_id, cover_letter, status, created_at, updated_at
		FROM applications WHERE id=$1`
	err := r.DB.QueryRow(ctx, query, id).Scan(&a.ID, &a.InternshipID, &a.StudentID,
		&a.CoverLetter, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE student_id=$1`, studentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ApplicationRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	query := `
		SELECT COUNT(*)
		FROM applications a
		JOIN internships i ON i.id = a.internship_id
		WHERE i.organization_id=$1
	`
	if err := r.DB.QueryRow(ctx, query, orgID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
