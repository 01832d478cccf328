package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
)

// Common errors for review repository operations.
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("user already reviewed this tour")
)

// CreateReview inserts a new review. Each user may review a tour once;
// a second attempt hits the unique constraint.
func (r *Repository) CreateReview(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, tour_id, user_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.TourID,
		review.UserID,
		review.Rating,
		review.Text,
		review.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetReviewByID retrieves a review by ID.
func (r *Repository) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	query := `
		SELECT id, tour_id, user_id, rating, text, created_at
		FROM reviews
		WHERE id = $1
	`

	var review model.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.TourID,
		&review.UserID,
		&review.Rating,
		&review.Text,
		&review.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// UpdateReview updates the rating and text of an existing review.
func (r *Repository) UpdateReview(ctx context.Context, review *model.Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, text = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, review.ID, review.Rating, review.Text)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// DeleteReview removes a review.
func (r *Repository) DeleteReview(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// ListReviews executes a list spec against the reviews collection.
func (r *Repository) ListReviews(ctx context.Context, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, reviewTranslator, spec)
}

// ListReviewsForTour executes a list spec scoped to one tour.
func (r *Repository) ListReviewsForTour(ctx context.Context, tourID string, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, reviewTranslator, spec, query.Cond{Column: "tour_id", Op: query.OpEq, Value: tourID})
}

// GetRatingSummary computes the review count and mean rating for a
// tour from the review rows themselves.
func (r *Repository) GetRatingSummary(ctx context.Context, tourID string) (model.RatingSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews
		WHERE tour_id = $1
	`

	var summary model.RatingSummary
	err := r.pool.QueryRow(ctx, query, tourID).Scan(&summary.Quantity, &summary.Average)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to get rating summary: %w", err)
	}

	return summary, nil
}
