package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	return s == ApplicationPending || s == ApplicationAccepted || s == ApplicationRejected
}

type Application struct {
	ID           uuid.UUID         `json:"id"`
	InternshipID uuid.UUID         `json:"internship_id"`
	StudentID    uuid.UUID         `json:"student_id"`
	CoverLetter  *string           `json:"cover_letter,omitempty"`
	Status       ApplicationStatus `json:"status"`
	CreatedAt    *time.Time        `json:"created_at,omitempty"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`

	// joined fields for listings
	InternshipTitle  *string `json:"internship_title,omitempty"`
	OrganizationName *string `json:"organization_name,omitempty"`
	StudentUsername  *string `json:"student_username,omitempty"`
	StudentFullName  *string `json:"student_full_name,omitempty"`
	StudentEmail     *string `json:"student_email,omitempty"`
	StudentCVURL     *string `json:"student_cv_url,omitempty"`
}
