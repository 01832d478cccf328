package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tourbase/tourbase/internal/apperr"
	"github.com/tourbase/tourbase/internal/metrics"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/payment"
	"github.com/tourbase/tourbase/internal/query"
	"github.com/tourbase/tourbase/internal/repository"
)

// BookingService handles checkout and booking records.
type BookingService struct {
	repo     *repository.Repository
	provider payment.Provider
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(repo *repository.Repository, provider payment.Provider, recorder metrics.Recorder) *BookingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BookingService{
		repo:     repo,
		provider: provider,
		metrics:  recorder,
		now:      time.Now,
	}
}

// CreateCheckoutSession starts a hosted checkout for one tour. The
// reference ID ties the provider callback to the booking it settles.
func (s *BookingService) CreateCheckoutSession(ctx context.Context, tourID string, principal *model.Principal) (*payment.CheckoutSession, error) {
	tour, err := s.repo.GetTourByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, tour, principal, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return session, nil
}

// CreateBookingInput defines input for recording a settled booking.
type CreateBookingInput struct {
	TourID string
	UserID string
	Price  float64
	Paid   bool
}

// CreateBooking records a booking at the tour's effective price when
// the input carries none.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*model.Booking, error) {
	tour, err := s.repo.GetTourByID(ctx, input.TourID)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	price := input.Price
	if price <= 0 {
		price = tour.EffectivePrice()
	}

	booking := &model.Booking{
		ID:        newID(),
		TourID:    input.TourID,
		UserID:    input.UserID,
		Price:     price,
		Paid:      input.Paid,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.metrics.IncBookingCreated()
	return booking, nil
}

// GetBooking returns one booking. Non-admins may only read their own.
func (s *BookingService) GetBooking(ctx context.Context, id string, principal *model.Principal) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperr.NotFound("No booking found with that ID")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.UserID != principal.UserID && !principal.Is(model.RoleAdmin) {
		return nil, apperr.Forbidden("You can only view your own bookings")
	}

	return booking, nil
}

// UpdateBookingInput defines the mutable booking fields.
type UpdateBookingInput struct {
	Price *float64
	Paid  *bool
}

// UpdateBooking edits a booking record. Admin only; the route guard
// enforces that.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, input UpdateBookingInput) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperr.NotFound("No booking found with that ID")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, apperr.Validation("Price must be positive")
		}
		booking.Price = *input.Price
	}
	if input.Paid != nil {
		booking.Paid = *input.Paid
	}

	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperr.NotFound("No booking found with that ID")
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return booking, nil
}

// DeleteBooking removes a booking record.
func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return apperr.NotFound("No booking found with that ID")
		}
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// ListBookings runs the query pipeline over bookings. Non-admins are
// always scoped to their own rows.
func (s *BookingService) ListBookings(ctx context.Context, principal *model.Principal, params url.Values) ([]query.Document, error) {
	spec := query.Build(params)

	var docs []query.Document
	var err error
	if principal.Is(model.RoleAdmin) {
		docs, err = s.repo.ListBookings(ctx, spec)
	} else {
		docs, err = s.repo.ListBookingsForUser(ctx, principal.UserID, spec)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidListQuery) {
			return nil, apperr.Validation("Invalid query parameter")
		}
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return docs, nil
}
