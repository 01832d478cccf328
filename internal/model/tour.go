// Package model defines domain entities for the application.
package model

import "time"

// Difficulty is the advertised difficulty grade of a tour.
type Difficulty string

// Valid difficulty values.
const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Valid reports whether the difficulty is a recognized value.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	default:
		return false
	}
}

// Tour represents a bookable tour in the catalog.
type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"price_discount,omitempty"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"max_group_size"`
	Difficulty      Difficulty  `json:"difficulty"`
	RatingsAverage  float64     `json:"ratings_average"`
	RatingsQuantity int         `json:"ratings_quantity"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"image_cover"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"start_dates,omitempty"`
	StartLat        *float64    `json:"start_lat,omitempty"`
	StartLng        *float64    `json:"start_lng,omitempty"`
	Guides          []string    `json:"guides,omitempty"`
	Secret          bool        `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EffectivePrice returns the discounted price when a discount is set.
func (t *Tour) EffectivePrice() float64 {
	if t.PriceDiscount != nil && *t.PriceDiscount > 0 && *t.PriceDiscount < t.Price {
		return *t.PriceDiscount
	}
	return t.Price
}

// HasStartPoint reports whether the tour carries a departure coordinate.
func (t *Tour) HasStartPoint() bool {
	return t.StartLat != nil && t.StartLng != nil
}

// TourDistance pairs a tour with its distance from a reference point,
// in the unit the caller asked for.
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Distance float64 `json:"distance"`
}

// TourStats is a per-difficulty aggregate over the catalog.
type TourStats struct {
	Difficulty Difficulty `json:"difficulty"`
	NumTours   int        `json:"num_tours"`
	NumRatings int        `json:"num_ratings"`
	AvgRating  float64    `json:"avg_rating"`
	AvgPrice   float64    `json:"avg_price"`
	MinPrice   float64    `json:"min_price"`
	MaxPrice   float64    `json:"max_price"`
}

// MonthlyPlanEntry counts tour departures for one month of a year.
type MonthlyPlanEntry struct {
	Month     int      `json:"month"`
	NumStarts int      `json:"num_starts"`
	Tours     []string `json:"tours"`
}
