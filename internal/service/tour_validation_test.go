package service

import (
	"context"
	"testing"
	"time"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/model"
)

func newValidationOnlyTourService() *TourService {
	return &TourService{now: time.Now}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "The Forest Hiker", "the-forest-hiker"},
		{"punctuation", "Sea & Sun: Deluxe!", "sea-sun-deluxe"},
		{"collapsed runs", "A   B --- C", "a-b-c"},
		{"leading and trailing", "  The Snow Adventurer  ", "the-snow-adventurer"},
		{"digits", "Top 10 Peaks 2026", "top-10-peaks-2026"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTourService_BuildTour_Validation(t *testing.T) {
	t.Parallel()
	svc := newValidationOnlyTourService()

	valid := TourInput{
		Name:         "The Forest Hiker",
		Price:        497,
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   "easy",
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
	}

	tour, err := svc.buildTour(valid)
	if err != nil {
		t.Fatalf("buildTour failed on valid input: %v", err)
	}
	if tour.Slug != "the-forest-hiker" {
		t.Errorf("slug: got %q, want %q", tour.Slug, "the-forest-hiker")
	}
	if tour.RatingsAverage != 4.5 || tour.RatingsQuantity != 0 {
		t.Errorf("new tour rating defaults: got avg=%v qty=%d", tour.RatingsAverage, tour.RatingsQuantity)
	}

	belowPrice := 400.0
	abovePrice := 600.0
	validLat := 51.178
	validLng := -115.57
	badLat := 91.0
	badLng := 181.0

	mutations := []struct {
		name   string
		mutate func(*TourInput)
		wantOK bool
	}{
		{"name too short", func(in *TourInput) { in.Name = "Short" }, false},
		{"name too long", func(in *TourInput) { in.Name = "This tour name is way way way too long to pass" }, false},
		{"zero price", func(in *TourInput) { in.Price = 0 }, false},
		{"discount above price", func(in *TourInput) { in.PriceDiscount = &abovePrice }, false},
		{"discount below price", func(in *TourInput) { in.PriceDiscount = &belowPrice }, true},
		{"bad difficulty", func(in *TourInput) { in.Difficulty = "extreme" }, false},
		{"no duration", func(in *TourInput) { in.Duration = 0 }, false},
		{"no group size", func(in *TourInput) { in.MaxGroupSize = 0 }, false},
		{"blank summary", func(in *TourInput) { in.Summary = "   " }, false},
		{"lat without lng", func(in *TourInput) { in.StartLat = &validLat }, false},
		{"lng without lat", func(in *TourInput) { in.StartLng = &validLng }, false},
		{"start point", func(in *TourInput) { in.StartLat = &validLat; in.StartLng = &validLng }, true},
		{"latitude out of range", func(in *TourInput) { in.StartLat = &badLat; in.StartLng = &validLng }, false},
		{"longitude out of range", func(in *TourInput) { in.StartLat = &validLat; in.StartLng = &badLng }, false},
	}

	for _, tt := range mutations {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			input := valid
			tt.mutate(&input)
			_, err := svc.buildTour(input)
			if tt.wantOK && err != nil {
				t.Errorf("expected success, got: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestTopCheapParams(t *testing.T) {
	t.Parallel()

	params := TopCheapParams()
	if got := params.Get("limit"); got != "5" {
		t.Errorf("limit: got %q, want 5", got)
	}
	if got := params.Get("sort"); got != "-ratings_average,price" {
		t.Errorf("sort: got %q", got)
	}
	if params.Get("fields") == "" {
		t.Error("fields projection missing")
	}
}

func TestCanSeeSecretTours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal *model.Principal
		want      bool
	}{
		{"anonymous", nil, false},
		{"regular user", &model.Principal{UserID: "u1", Role: model.RoleUser}, false},
		{"publisher", &model.Principal{UserID: "p1", Role: model.RolePublisher}, true},
		{"admin", &model.Principal{UserID: "a1", Role: model.RoleAdmin}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			if tt.principal != nil {
				ctx = auth.ContextWithPrincipal(ctx, tt.principal)
			}
			if got := canSeeSecretTours(ctx); got != tt.want {
				t.Errorf("canSeeSecretTours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToKilometers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		distance float64
		unit     string
		want     float64
		wantErr  bool
	}{
		{"kilometers pass through", 100, "km", 100, false},
		{"miles convert", 100, "mi", 100 / 0.621371, false},
		{"unknown unit", 100, "leagues", 0, true},
		{"empty unit", 100, "", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := toKilometers(tt.distance, tt.unit)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("toKilometers failed: %v", err)
			}
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateLatLng(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"banff", 51.178, -115.57, false},
		{"equator antimeridian", 0, 180, false},
		{"latitude too high", 90.5, 0, true},
		{"latitude too low", -90.5, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -180.5, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateLatLng(tt.lat, tt.lng)
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
