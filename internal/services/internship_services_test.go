package services

import (
	"context"
	"testing"
	"time"

	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/security"

	"github.com/google/uuid"
)

func newListingService() *InternshipService {
	return &InternshipService{Sanitizer: security.NewSanitizer()}
}

func validInput() InternshipInput {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	return InternshipInput{
		Title:       "Backend Intern",
		Description: "Work on the API.",
		Field:       "Software",
		WorkType:    "remote",
		IsPaid:      true,
		Deadline:    &deadline,
	}
}

func TestBuildListingValidation(t *testing.T) {
	s := newListingService()
	orgID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*InternshipInput)
	}{
		{"missing title", func(in *InternshipInput) { in.Title = "" }},
		{"missing description", func(in *InternshipInput) { in.Description = "" }},
		{"missing field", func(in *InternshipInput) { in.Field = "" }},
		{"bad work type", func(in *InternshipInput) { in.WorkType = "freelance" }},
		// Sanitizing strips markup, so a tag-only title is effectively empty.
		{"markup-only title", func(in *InternshipInput) { in.Title = "<script>x()</script>" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := s.buildListing(orgID, in); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildListingDefaultsAndSanitizes(t *testing.T) {
	s := newListingService()
	orgID := uuid.New()

	in := validInput()
	in.WorkType = ""
	in.Title = "  Backend <b>Intern</b>  "
	in.Requirements = []string{" Go ", "<i>SQL</i>", "", "  "}

	listing, err := s.buildListing(orgID, in)
	if err != nil {
		t.Fatalf("buildListing: %v", err)
	}
	if listing.WorkType != model.WorkOnsite {
		t.Fatalf("work type = %s, want default onsite", listing.WorkType)
	}
	if listing.Title != "Backend Intern" {
		t.Fatalf("title = %q, markup and padding must be stripped", listing.Title)
	}
	if len(listing.Requirements) != 2 || listing.Requirements[0] != "Go" || listing.Requirements[1] != "SQL" {
		t.Fatalf("requirements = %v, want cleaned [Go SQL]", listing.Requirements)
	}
	if !listing.IsActive {
		t.Fatal("new listing must start active")
	}
	if listing.OrganizationID != orgID {
		t.Fatal("listing must be owned by the posting organization")
	}
}

func TestSearchRejectsUnknownWorkType(t *testing.T) {
	s := newListingService()
	if _, err := s.Search(context.Background(), "", "", "freelance"); err == nil {
		t.Fatal("unknown work_type must be rejected before hitting the database")
	}
}
