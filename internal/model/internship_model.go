package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkType string

const (
	WorkRemote WorkType = "remote"
	WorkOnsite WorkType = "onsite"
	WorkHybrid WorkType = "hybrid"
)

func (w WorkType) Valid() bool {
	return w == WorkRemote || w == WorkOnsite || w == WorkHybrid
}

type Internship struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Field          string     `json:"field"`
	Location       *string    `json:"location,omitempty"`
	WorkType       WorkType   `json:"work_type"`
	IsPaid         bool       `json:"is_paid"`
	Stipend        *string    `json:"stipend,omitempty"`
	Duration       *string    `json:"duration,omitempty"`
	Requirements   []string   `json:"requirements,omitempty"`
	Deadline       *time.Time `json:"application_deadline,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`

	// joined from profiles on reads, never written
	OrganizationName     *string `json:"organization_name,omitempty"`
	OrganizationUsername *string `json:"organization_username,omitempty"`
}
