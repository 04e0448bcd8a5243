// Package bluemonday strips markup from extracted text using a strict
// bluemonday policy.
package bluemonday

import (
	"github.com/fwojciec/lectern"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Sanitizer implements lectern.Sanitizer at compile time.
var _ lectern.Sanitizer = (*Sanitizer)(nil)

// Sanitizer removes every HTML element, keeping text content only.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer with a strict policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns s with all markup removed. Entities in the output are
// escaped; callers unescape them.
func (s *Sanitizer) Sanitize(in string) string {
	return s.policy.Sanitize(in)
}
