// Package security sanitizes user-submitted text before it is stored and
// rendered to other users.
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from free-text fields. Listings and profile
// descriptions are plain text in this application, so the strict policy
// applies everywhere.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes all HTML and trims surrounding whitespace.
func (s *Sanitizer) Clean(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// CleanAll sanitizes a slice in place and drops entries left empty.
func (s *Sanitizer) CleanAll(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if cleaned := s.Clean(item); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
