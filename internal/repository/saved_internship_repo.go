package repository

import (
	"context"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SavedInternshipRepository struct {
	DB *pgxpool.Pool
}

func NewSavedInternshipRepository(db *pgxpool.Pool) *SavedInternshipRepository {
	return &SavedInternshipRepository{DB: db}
}

// Save bookmarks a listing for a student. Saving twice is a no-op.
func (r *SavedInternshipRepository) Save(ctx context.Context, internshipID, studentID uuid.UUID) error {
	query := `
		INSERT INTO saved_internships (internship_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (internship_id, student_id) DO NOTHING
	`
	_, err := r.DB.Exec(ctx, query, internshipID, studentID)
	return err
}

func (r *SavedInternshipRepository) Unsave(ctx context.Context, internshipID, studentID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM saved_internships WHERE internship_id=$1 AND student_id=$2`,
		internshipID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SavedInternshipRepository) Exists(ctx context.Context, internshipID, studentID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM saved_internships WHERE internship_id=$1 AND student_id=$2)`
	if err := r.DB.QueryRow(ctx, query, internshipID, studentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByStudent returns the student's bookmarks with the listing and its
// organization joined in.
func (r *SavedInternshipRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.SavedInternship, error) {
	query := `
		SELECT s.id, s.internship_id, s.student_id, s.created_at, ` + internshipColumns + `
		FROM saved_internships s
		JOIN internships i ON i.id = s.internship_id
		JOIN profiles p ON p.id = i.organization_id
		WHERE s.student_id=$1
		ORDER BY s.created_at DESC
	`
	rows, err := r.DB.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SavedInternship{}
	for rows.Next() {
		var s model.SavedInternship
		var in model.Internship
		if err := rows.Scan(&s.ID, &s.InternshipID, &s.StudentID, &s.CreatedAt,
			&in.ID, &in.OrganizationID, &in.Title, &in.Description, &in.Field, &in.Location,
			&in.WorkType, &in.IsPaid, &in.Stipend, &in.Duration, &in.Requirements, &in.Deadline,
			&in.IsActive, &in.CreatedAt, &in.UpdatedAt, &in.OrganizationName, &in.OrganizationUsername); err != nil {
			return nil, err
		}
		s.Internship = &in
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SavedInternshipRepository) CountByStudent(ctx context.Context, studentID uuid.UUID) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM saved_internships WHERE student_id=$1`, studentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
