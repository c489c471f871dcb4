package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxSlugLength bounds a single slug/segment.
const MaxSlugLength = 64

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Slug is a normalized human-readable identifier. Uniqueness is a property
// of the slug registry, not of the type itself.
type Slug string

// NewSlug trims and lowercases the input and validates it against the
// canonical slug pattern.
func NewSlug(raw string) (Slug, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("%w: slug is empty", ErrInvalidSegment)
	}
	if len(normalized) > MaxSlugLength {
		return "", fmt.Errorf("%w: slug %q exceeds %d characters", ErrInvalidSegment, normalized, MaxSlugLength)
	}
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: slug %q must match %s", ErrInvalidSegment, raw, slugPattern.String())
	}
	return Slug(normalized), nil
}

func (s Slug) String() string { return string(s) }
