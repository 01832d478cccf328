package analytics

import (
	"strings"
	"testing"
	"time"
)

func TestValidateViewEventPayload(t *testing.T) {
	valid := ViewEventPayload{
		TourID:      "tour-1",
		UserID:      "user-1",
		Source:      "web",
		Tags:        []string{"hiking"},
		VisitorHash: "0123456789abcdef",
		ViewedAt:    time.Now().UnixMilli(),
	}

	if err := ValidateViewEventPayload(valid); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	cases := []struct {
		name    string
		payload ViewEventPayload
	}{
		{"missing_tour_id", ViewEventPayload{VisitorHash: "0123456789abcdef", ViewedAt: 1}},
		{"tour_id_too_long", ViewEventPayload{TourID: strings.Repeat("a", maxIDLength+1), VisitorHash: "0123456789abcdef", ViewedAt: 1}},
		{"unknown_source", ViewEventPayload{TourID: "tour-1", Source: "mobile", VisitorHash: "0123456789abcdef", ViewedAt: 1}},
		{"missing_visitor_hash", ViewEventPayload{TourID: "tour-1", ViewedAt: 1}},
		{"invalid_visitor_hash", ViewEventPayload{TourID: "tour-1", VisitorHash: "not-hex", ViewedAt: 1}},
		{"missing_viewed_at", ViewEventPayload{TourID: "tour-1", VisitorHash: "0123456789abcdef"}},
		{"empty_tag", ViewEventPayload{TourID: "tour-1", Tags: []string{""}, VisitorHash: "0123456789abcdef", ViewedAt: 1}},
		{"tag_too_long", ViewEventPayload{TourID: "tour-1", Tags: []string{strings.Repeat("x", maxTagLength+1)}, VisitorHash: "0123456789abcdef", ViewedAt: 1}},
	}

	for _, tc := range cases {
		if err := ValidateViewEventPayload(tc.payload); err == nil {
			t.Fatalf("expected error for %s", tc.name)
		}
	}
}

func TestValidateViewEventPayload_AnonymousView(t *testing.T) {
	payload := ViewEventPayload{
		TourID:      "tour-1",
		VisitorHash: "abcdefABCDEF0123",
		ViewedAt:    time.Now().UnixMilli(),
	}

	if err := ValidateViewEventPayload(payload); err != nil {
		t.Fatalf("anonymous view without user or source should validate, got %v", err)
	}
}
