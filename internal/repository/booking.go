package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
)

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// CreateBooking inserts a new booking.
func (r *Repository) CreateBooking(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, tour_id, user_id, price, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.TourID,
		booking.UserID,
		booking.Price,
		booking.Paid,
		booking.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetBookingByID retrieves a booking by ID.
func (r *Repository) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	query := `
		SELECT id, tour_id, user_id, price, paid, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking model.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.TourID,
		&booking.UserID,
		&booking.Price,
		&booking.Paid,
		&booking.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// UpdateBooking updates the price and paid flag of a booking.
func (r *Repository) UpdateBooking(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET price = $2, paid = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, booking.ID, booking.Price, booking.Paid)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// DeleteBooking removes a booking.
func (r *Repository) DeleteBooking(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// ListBookings executes a list spec against the bookings collection.
func (r *Repository) ListBookings(ctx context.Context, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, bookingTranslator, spec)
}

// ListBookingsForUser executes a list spec scoped to one user.
func (r *Repository) ListBookingsForUser(ctx context.Context, userID string, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, bookingTranslator, spec, query.Cond{Column: "user_id", Op: query.OpEq, Value: userID})
}
