package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
)

// Common errors for tour repository operations.
var (
	ErrTourNotFound  = errors.New("tour not found")
	ErrTourNameTaken = errors.New("tour name already exists")
)

const tourColumns = `id, name, slug, price, price_discount, duration, max_group_size,
		difficulty, ratings_average, ratings_quantity, summary, description,
		image_cover, images, start_dates, start_lat, start_lng, guides, secret,
		created_at, updated_at`

// haversineKm computes the great-circle distance in kilometers between
// ($1 lat, $2 lng) and a tour's start point. Clamped into acos domain
// so antipodal rounding cannot produce NaN.
const haversineKm = `6371 * acos(least(1.0,
		cos(radians($1)) * cos(radians(start_lat)) * cos(radians(start_lng) - radians($2))
		+ sin(radians($1)) * sin(radians(start_lat))))`

// CreateTour inserts a new tour.
func (r *Repository) CreateTour(ctx context.Context, tour *model.Tour) error {
	query := `
		INSERT INTO tours (
			id, name, slug, price, price_discount, duration, max_group_size,
			difficulty, ratings_average, ratings_quantity, summary, description,
			image_cover, images, start_dates, start_lat, start_lng, guides,
			secret, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.pool.Exec(ctx, query,
		tour.ID,
		tour.Name,
		tour.Slug,
		tour.Price,
		tour.PriceDiscount,
		tour.Duration,
		tour.MaxGroupSize,
		tour.Difficulty,
		tour.RatingsAverage,
		tour.RatingsQuantity,
		tour.Summary,
		tour.Description,
		tour.ImageCover,
		tour.Images,
		tour.StartDates,
		tour.StartLat,
		tour.StartLng,
		tour.Guides,
		tour.Secret,
		tour.CreatedAt,
		tour.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTourNameTaken
		}
		return fmt.Errorf("failed to create tour: %w", err)
	}

	return nil
}

// GetTourByID retrieves a tour by ID.
func (r *Repository) GetTourByID(ctx context.Context, id string) (*model.Tour, error) {
	return r.getTour(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id)
}

// GetTourBySlug retrieves a tour by its URL slug.
func (r *Repository) GetTourBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return r.getTour(ctx, `SELECT `+tourColumns+` FROM tours WHERE slug = $1`, slug)
}

func (r *Repository) getTour(ctx context.Context, sql string, arg any) (*model.Tour, error) {
	var tour model.Tour
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&tour.ID,
		&tour.Name,
		&tour.Slug,
		&tour.Price,
		&tour.PriceDiscount,
		&tour.Duration,
		&tour.MaxGroupSize,
		&tour.Difficulty,
		&tour.RatingsAverage,
		&tour.RatingsQuantity,
		&tour.Summary,
		&tour.Description,
		&tour.ImageCover,
		&tour.Images,
		&tour.StartDates,
		&tour.StartLat,
		&tour.StartLng,
		&tour.Guides,
		&tour.Secret,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	return &tour, nil
}

// UpdateTour updates all mutable tour fields.
func (r *Repository) UpdateTour(ctx context.Context, tour *model.Tour) error {
	query := `
		UPDATE tours
		SET name = $2, slug = $3, price = $4, price_discount = $5, duration = $6,
		    max_group_size = $7, difficulty = $8, summary = $9, description = $10,
		    image_cover = $11, images = $12, start_dates = $13, start_lat = $14,
		    start_lng = $15, guides = $16, secret = $17,
		    updated_at = $18, lock_version = lock_version + 1
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		tour.ID,
		tour.Name,
		tour.Slug,
		tour.Price,
		tour.PriceDiscount,
		tour.Duration,
		tour.MaxGroupSize,
		tour.Difficulty,
		tour.Summary,
		tour.Description,
		tour.ImageCover,
		tour.Images,
		tour.StartDates,
		tour.StartLat,
		tour.StartLng,
		tour.Guides,
		tour.Secret,
		tour.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTourNameTaken
		}
		return fmt.Errorf("failed to update tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTourNotFound
	}

	return nil
}

// UpdateTourRatings stores a recomputed rating aggregate.
func (r *Repository) UpdateTourRatings(ctx context.Context, tourID string, summary model.RatingSummary) error {
	query := `
		UPDATE tours
		SET ratings_quantity = $2, ratings_average = $3
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, tourID, summary.Quantity, summary.Average); err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}

	return nil
}

// DeleteTour removes a tour.
func (r *Repository) DeleteTour(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTourNotFound
	}

	return nil
}

// ListTours executes a list spec against the tours collection.
// Secret tours are excluded with an explicit fixed condition; callers
// that need them (admin exports) go through ListAllTours.
func (r *Repository) ListTours(ctx context.Context, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, tourTranslator, spec, query.Cond{Column: "secret", Op: query.OpEq, Value: false})
}

// ListAllTours executes a list spec without the secret-tour filter.
func (r *Repository) ListAllTours(ctx context.Context, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, tourTranslator, spec)
}

// ToursWithin returns non-secret tours whose start point lies within
// radiusKm of (lat, lng). Tours without a start point never match.
func (r *Repository) ToursWithin(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	sql := `SELECT ` + tourColumns + `
		FROM tours
		WHERE secret = false
		  AND start_lat IS NOT NULL
		  AND ` + haversineKm + ` <= $3
		ORDER BY name`

	rows, err := r.pool.Query(ctx, sql, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours within radius: %w", err)
	}
	defer rows.Close()

	var tours []model.Tour
	for rows.Next() {
		var tour model.Tour
		if err := rows.Scan(
			&tour.ID,
			&tour.Name,
			&tour.Slug,
			&tour.Price,
			&tour.PriceDiscount,
			&tour.Duration,
			&tour.MaxGroupSize,
			&tour.Difficulty,
			&tour.RatingsAverage,
			&tour.RatingsQuantity,
			&tour.Summary,
			&tour.Description,
			&tour.ImageCover,
			&tour.Images,
			&tour.StartDates,
			&tour.StartLat,
			&tour.StartLng,
			&tour.Guides,
			&tour.Secret,
			&tour.CreatedAt,
			&tour.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, tour)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tours within radius: %w", err)
	}

	return tours, nil
}

// TourDistances returns the distance in kilometers from (lat, lng) to
// every non-secret tour with a start point, nearest first.
func (r *Repository) TourDistances(ctx context.Context, lat, lng float64) ([]model.TourDistance, error) {
	sql := `SELECT id, name, slug, ` + haversineKm + ` AS distance_km
		FROM tours
		WHERE secret = false
		  AND start_lat IS NOT NULL
		ORDER BY distance_km`

	rows, err := r.pool.Query(ctx, sql, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour distances: %w", err)
	}
	defer rows.Close()

	var distances []model.TourDistance
	for rows.Next() {
		var d model.TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Slug, &d.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan tour distance: %w", err)
		}
		distances = append(distances, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tour distances: %w", err)
	}

	return distances, nil
}

// GetTourStats aggregates tour counts, ratings, and prices per
// difficulty, over non-secret tours.
func (r *Repository) GetTourStats(ctx context.Context) ([]model.TourStats, error) {
	query := `
		SELECT difficulty,
		       COUNT(*) AS num_tours,
		       COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
		       COALESCE(AVG(ratings_average), 0) AS avg_rating,
		       COALESCE(AVG(price), 0) AS avg_price,
		       COALESCE(MIN(price), 0) AS min_price,
		       COALESCE(MAX(price), 0) AS max_price
		FROM tours
		WHERE secret = false
		GROUP BY difficulty
		ORDER BY avg_price
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour stats: %w", err)
	}
	defer rows.Close()

	var stats []model.TourStats
	for rows.Next() {
		var s model.TourStats
		if err := rows.Scan(
			&s.Difficulty,
			&s.NumTours,
			&s.NumRatings,
			&s.AvgRating,
			&s.AvgPrice,
			&s.MinPrice,
			&s.MaxPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tour stats: %w", err)
	}

	return stats, nil
}

// GetMonthlyPlan counts departures per month for a year, unnesting the
// start-date array so each departure counts once.
func (r *Repository) GetMonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlanEntry, error) {
	query := `
		SELECT EXTRACT(MONTH FROM start_date)::int AS month,
		       COUNT(*) AS num_starts,
		       ARRAY_AGG(name ORDER BY name) AS tours
		FROM tours, UNNEST(start_dates) AS start_date
		WHERE secret = false
		  AND EXTRACT(YEAR FROM start_date) = $1
		GROUP BY month
		ORDER BY num_starts DESC, month
	`

	rows, err := r.pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly plan: %w", err)
	}
	defer rows.Close()

	var plan []model.MonthlyPlanEntry
	for rows.Next() {
		var entry model.MonthlyPlanEntry
		if err := rows.Scan(&entry.Month, &entry.NumStarts, &entry.Tours); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		plan = append(plan, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly plan: %w", err)
	}

	return plan, nil
}
