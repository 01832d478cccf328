// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Validation limits.
const (
	// MaxSlugLength is the maximum length for a tour slug in a URL.
	MaxSlugLength = 64

	// MinSlugLength is the minimum length for a tour slug.
	MinSlugLength = 3

	// MaxIDLength is the maximum length for an entity ID path segment.
	MaxIDLength = 64
)

// Validation errors.
var (
	ErrSlugTooLong  = errors.New("slug exceeds maximum length")
	ErrSlugTooShort = errors.New("slug is too short")
	ErrSlugInvalid  = errors.New("slug contains invalid characters")
	ErrSlugReserved = errors.New("slug is reserved")
	ErrSlugNotASCII = errors.New("slug contains non-ascii characters")
	ErrIDInvalid    = errors.New("id contains invalid characters")
	ErrIDTooLong    = errors.New("id is empty or exceeds maximum length")
)

// ReservedSlugs contains path segments that can never resolve to a
// tour, because they collide with fixed catalog routes.
var ReservedSlugs = map[string]bool{
	"top-5-cheap":  true,
	"stats":        true,
	"monthly-plan": true,

	// System routes
	"api":     true,
	"admin":   true,
	"healthz": true,
	"readyz":  true,
	"metrics": true,
}

// validSlugPattern matches valid slug characters.
// Allowed: a-z, 0-9, hyphen.
var validSlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// validIDPattern matches entity IDs: ULIDs and UUIDs both fit.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidateSlug validates a tour slug taken from a URL path.
func ValidateSlug(slug string) error {
	if len(slug) > MaxSlugLength {
		return ErrSlugTooLong
	}

	if len(slug) < MinSlugLength {
		return ErrSlugTooShort
	}

	// Reject all non-ASCII before the pattern check so homograph
	// lookalikes fail loudly rather than as a generic mismatch.
	for _, r := range slug {
		if r > unicode.MaxASCII {
			return ErrSlugNotASCII
		}
	}

	if !validSlugPattern.MatchString(slug) {
		return ErrSlugInvalid
	}

	if ReservedSlugs[strings.ToLower(slug)] {
		return ErrSlugReserved
	}

	return nil
}

// ValidateID validates an entity ID taken from a URL path.
func ValidateID(id string) error {
	if id == "" || len(id) > MaxIDLength {
		return ErrIDTooLong
	}

	if !validIDPattern.MatchString(id) {
		return ErrIDInvalid
	}

	return nil
}
