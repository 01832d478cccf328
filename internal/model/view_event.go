package model

import "time"

// TourViewEvent records a single catalog view of a tour.
// Events are captured asynchronously and batch-inserted; EventID is the
// Redis stream ID and doubles as the idempotency key.
type TourViewEvent struct {
	ID          string
	EventID     string
	TourID      string
	UserID      string // empty for anonymous views
	Source      string // "api", "web", or "" when unknown
	Tags        []string
	VisitorHash string
	ViewedAt    time.Time
}
