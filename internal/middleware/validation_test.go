package middleware

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSlug_Valid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"the-forest-hiker",
		"sea-explorer",
		"top-10-peaks-2026",
		"abc",
	}

	for _, slug := range tests {
		slug := slug
		t.Run(slug, func(t *testing.T) {
			t.Parallel()
			if err := ValidateSlug(slug); err != nil {
				t.Errorf("ValidateSlug(%q) = %v, want nil", slug, err)
			}
		})
	}
}

func TestValidateSlug_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		slug    string
		wantErr error
	}{
		{"too short", "ab", ErrSlugTooShort},
		{"too long", strings.Repeat("a", MaxSlugLength+1), ErrSlugTooLong},
		{"uppercase", "The-Forest-Hiker", ErrSlugInvalid},
		{"underscore", "forest_hiker", ErrSlugInvalid},
		{"spaces", "forest hiker", ErrSlugInvalid},
		{"unicode homograph", "fоrest-hiker", ErrSlugNotASCII},
		{"reserved preset", "top-5-cheap", ErrSlugReserved},
		{"reserved stats", "stats", ErrSlugReserved},
		{"reserved system", "healthz", ErrSlugReserved},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSlug(tt.slug)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSlug(%q) = %v, want %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	valid := []string{
		"01hqvx8e5d3nq0t7k2m9w4yzrb",
		"550e8400-e29b-41d4-a716-446655440000",
	}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"empty", "", ErrIDTooLong},
		{"too long", strings.Repeat("a", MaxIDLength+1), ErrIDTooLong},
		{"path traversal", "../etc/passwd", ErrIDInvalid},
		{"sql metacharacters", "1;DROP TABLE", ErrIDInvalid},
	}
	for _, tt := range invalid {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateID(tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
