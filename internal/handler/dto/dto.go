// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/tourbase/tourbase/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SignUpRequest represents the request body for account creation.
type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the request body for requesting a
// password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the request body for redeeming a
// password reset token.
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// UpdatePasswordRequest represents the request body for a logged-in
// password change.
type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// UpdateProfileRequest represents the request body for updating the
// caller's own profile.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Photo *string `json:"photo,omitempty"`
}

// UserResponse represents a user account in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse carries a user together with a fresh credential token.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// TourRequest represents the request body for creating or updating a tour.
type TourRequest struct {
	Name          string      `json:"name"`
	Price         float64     `json:"price"`
	PriceDiscount *float64    `json:"price_discount,omitempty"`
	Duration      int         `json:"duration"`
	MaxGroupSize  int         `json:"max_group_size"`
	Difficulty    string      `json:"difficulty"`
	Summary       string      `json:"summary"`
	Description   string      `json:"description,omitempty"`
	ImageCover    string      `json:"image_cover,omitempty"`
	Images        []string    `json:"images,omitempty"`
	StartDates    []time.Time `json:"start_dates,omitempty"`
	StartLat      *float64    `json:"start_lat,omitempty"`
	StartLng      *float64    `json:"start_lng,omitempty"`
	Guides        []string    `json:"guides,omitempty"`
	Secret        bool        `json:"secret,omitempty"`
}

// CreateReviewRequest represents the request body for posting a review.
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// UpdateReviewRequest represents the request body for editing a review.
type UpdateReviewRequest struct {
	Rating *int    `json:"rating,omitempty"`
	Text   *string `json:"text,omitempty"`
}

// CreateBookingRequest represents the request body for recording a booking.
type CreateBookingRequest struct {
	TourID string  `json:"tour_id"`
	UserID string  `json:"user_id,omitempty"`
	Price  float64 `json:"price,omitempty"`
	Paid   *bool   `json:"paid,omitempty"`
}

// UpdateBookingRequest represents the request body for editing a booking.
type UpdateBookingRequest struct {
	Price *float64 `json:"price,omitempty"`
	Paid  *bool    `json:"paid,omitempty"`
}

// ListResponse wraps a filtered collection listing. Results carries the
// projected documents as returned by the query pipeline.
type ListResponse struct {
	Results int `json:"results"`
	Data    any `json:"data"`
}

// DailyViewStat is one day of the per-tour view rollup.
type DailyViewStat struct {
	Day            string `json:"day"`
	Views          int64  `json:"views"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// TourViewStatsResponse reports recorded views for one tour.
type TourViewStatsResponse struct {
	TourID     string          `json:"tour_id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	TotalViews int64           `json:"total_views"`
	Daily      []DailyViewStat `json:"daily"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Photo:     user.Photo,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
