package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tourbase/tourbase/internal/apperr"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
	"github.com/tourbase/tourbase/internal/repository"
)

// ReviewService handles review business logic and keeps the rating
// aggregates on tours in step with the review rows.
type ReviewService struct {
	repo   *repository.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo *repository.Repository, logger *slog.Logger) *ReviewService {
	return &ReviewService{repo: repo, logger: logger, now: time.Now}
}

// CreateReviewInput defines input for posting a review.
type CreateReviewInput struct {
	TourID string
	UserID string
	Rating int
	Text   string
}

// CreateReview posts a review and recomputes the tour's rating
// aggregate. One review per user per tour.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperr.Validation("Rating must be between 1 and 5")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperr.Validation("Review can not be empty")
	}

	// The tour must exist; a review against a missing tour is a 404.
	if _, err := s.repo.GetTourByID(ctx, input.TourID); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	review := &model.Review{
		ID:        newID(),
		TourID:    input.TourID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperr.Conflict("You have already reviewed this tour")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.recomputeRatings(ctx, input.TourID)
	return review, nil
}

// GetReview returns one review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperr.NotFound("No review found with that ID")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// UpdateReviewInput defines the mutable review fields.
type UpdateReviewInput struct {
	Rating *int
	Text   *string
}

// UpdateReview edits a review. Only the author may edit; admins go
// through DeleteReview instead.
func (s *ReviewService) UpdateReview(ctx context.Context, id, callerID string, input UpdateReviewInput) (*model.Review, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID {
		return nil, apperr.Forbidden("You can only edit your own reviews")
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperr.Validation("Rating must be between 1 and 5")
		}
		review.Rating = *input.Rating
	}
	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, apperr.Validation("Review can not be empty")
		}
		review.Text = text
	}

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperr.NotFound("No review found with that ID")
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.recomputeRatings(ctx, review.TourID)
	return review, nil
}

// DeleteReview removes a review. The caller must be the author or hold
// the admin role; the handler enforces the role half.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteReview(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return apperr.NotFound("No review found with that ID")
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.recomputeRatings(ctx, review.TourID)
	return nil
}

// ListReviews runs the query pipeline over reviews, optionally scoped
// to one tour.
func (s *ReviewService) ListReviews(ctx context.Context, tourID string, params url.Values) ([]query.Document, error) {
	spec := query.Build(params)

	var docs []query.Document
	var err error
	if tourID != "" {
		docs, err = s.repo.ListReviewsForTour(ctx, tourID, spec)
	} else {
		docs, err = s.repo.ListReviews(ctx, spec)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidListQuery) {
			return nil, apperr.Validation("Invalid query parameter")
		}
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return docs, nil
}

// recomputeRatings refreshes the denormalized aggregate on the tour.
// Failure is logged, not returned: the review write already happened
// and the aggregate self-heals on the next review mutation.
func (s *ReviewService) recomputeRatings(ctx context.Context, tourID string) {
	summary, err := s.repo.GetRatingSummary(ctx, tourID)
	if err != nil {
		s.logger.WarnContext(ctx, "rating summary failed",
			slog.String("tour_id", tourID),
			slog.String("error", err.Error()),
		)
		return
	}

	if summary.Quantity == 0 {
		// Back to the pre-review default.
		summary = model.RatingSummary{Quantity: 0, Average: 4.5}
	}

	if err := s.repo.UpdateTourRatings(ctx, tourID, summary); err != nil {
		s.logger.WarnContext(ctx, "rating aggregate update failed",
			slog.String("tour_id", tourID),
			slog.String("error", err.Error()),
		)
	}
}
