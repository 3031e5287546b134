package model

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the external-auth identity record. Profiles hang off it 1:1.
type Credential struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never JSON-encode
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}
