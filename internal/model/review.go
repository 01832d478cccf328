package model

import "time"

// Review is a user's rating of a tour.
// A user may review each tour at most once (enforced by a unique index).
type Review struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tour_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary is the aggregate recomputed after every review write.
type RatingSummary struct {
	Quantity int
	Average  float64
}
