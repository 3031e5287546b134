package model

import (
	"time"

	"github.com/google/uuid"
)

type SavedInternship struct {
	ID           uuid.UUID  `json:"id"`
	InternshipID uuid.UUID  `json:"internship_id"`
	StudentID    uuid.UUID  `json:"student_id"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`

	Internship *Internship `json:"internship,omitempty"`
}
