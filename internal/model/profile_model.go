package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the persisted profile role. Admin is not a Role: it is a
// session-local flag with no profile row behind it.
type Role string

const (
	RoleStudent      Role = "student"
	RoleOrganization Role = "organization"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleOrganization
}

// Profile is the application-level record for a student or organization,
// keyed 1:1 to a credential id. Role is fixed at sign-up and never changes.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`

	// student fields
	FullName *string  `json:"full_name,omitempty"`
	Field    *string  `json:"field,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	CVURL    *string  `json:"cv_url,omitempty"`

	// organization fields
	OrganizationName        *string `json:"organization_name,omitempty"`
	OrganizationDescription *string `json:"organization_description,omitempty"`
	OrganizationWebsite     *string `json:"organization_website,omitempty"`
	OrganizationLogoURL     *string `json:"organization_logo_url,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
