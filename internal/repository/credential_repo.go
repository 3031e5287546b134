package repository

import (
	"context"
	"errors"

	"github.com/frontenddevmichael/openrole-connect/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

type CredentialRepository struct {
	DB *pgxpool.Pool
}

func NewCredentialRepository(db *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

// Create inserts a credential and returns the generated id.
func (r *CredentialRepository) Create(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO credentials (email, password_hash) VALUES ($1, $2) RETURNING id`
	if err := r.DB.QueryRow(ctx, query, email, passwordHash).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrDuplicate
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential
	query := `SELECT id, email, password_hash, created_at, deleted_at
			FROM credentials
			WHERE email=$1 AND deleted_at IS NULL`
	if err := r.DB.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	var c model.Credential
	query := `SELECT id, email, password_hash, created_at, deleted_at
			FROM credentials
			WHERE id=$1 AND deleted_at IS NULL`
	if err := r.DB.QueryRow(ctx, query, id).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM credentials WHERE email=$1)`
	if err := r.DB.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// isUniqueViolation reports whether err is a Postgres 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
