package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tourbase/tourbase/internal/analytics"
	"github.com/tourbase/tourbase/internal/apperr"
	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/cache"
	"github.com/tourbase/tourbase/internal/metrics"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
	"github.com/tourbase/tourbase/internal/repository"
)

const (
	minTourNameLength = 10
	maxTourNameLength = 40
)

var slugStripRegex = regexp.MustCompile(`[^a-z0-9]+`)

// TourService handles catalog business logic.
type TourService struct {
	repo      *repository.Repository
	cache     *cache.Cache
	publisher *analytics.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewTourService creates a new TourService. The publisher may be nil
// when the analytics pipeline is disabled.
func NewTourService(repo *repository.Repository, c *cache.Cache, publisher *analytics.Publisher, recorder metrics.Recorder, logger *slog.Logger) *TourService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TourService{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// TourInput defines input for creating or replacing a tour.
type TourInput struct {
	Name          string
	Price         float64
	PriceDiscount *float64
	Duration      int
	MaxGroupSize  int
	Difficulty    string
	Summary       string
	Description   string
	ImageCover    string
	Images        []string
	StartDates    []time.Time
	StartLat      *float64
	StartLng      *float64
	Guides        []string
	Secret        bool
}

// CreateTour validates and inserts a new tour.
func (s *TourService) CreateTour(ctx context.Context, input TourInput) (*model.Tour, error) {
	tour, err := s.buildTour(input)
	if err != nil {
		return nil, err
	}
	if err := s.validateGuides(ctx, tour.Guides); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTour(ctx, tour); err != nil {
		if errors.Is(err, repository.ErrTourNameTaken) {
			return nil, apperr.Conflict("A tour with that name already exists")
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	s.metrics.IncTourCreated()
	s.invalidateStats(ctx)
	return tour, nil
}

// GetTour returns one tour by ID. Secret tours are indistinguishable
// from missing ones unless the caller can manage the catalog.
func (s *TourService) GetTour(ctx context.Context, id string) (*model.Tour, error) {
	tour, err := s.repo.GetTourByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if tour.Secret && !canSeeSecretTours(ctx) {
		return nil, apperr.NotFound("No tour found with that ID")
	}
	return tour, nil
}

// GetTourBySlug returns one tour by slug, cache first. A hit on the
// negative cache short-circuits the database entirely.
func (s *TourService) GetTourBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	start := s.now()

	if s.cache != nil {
		if tour, err := s.cache.GetTour(ctx, slug); err == nil {
			s.metrics.IncTourCacheHit()
			s.metrics.ObserveTourLookupDuration(s.now().Sub(start))
			return tour, nil
		}

		negative, err := s.cache.IsNegativelyCached(ctx, slug)
		if err == nil && negative {
			s.metrics.IncTourCacheHit()
			return nil, apperr.NotFound("No tour found with that name")
		}
	}

	s.metrics.IncTourCacheMiss()

	tour, err := s.repo.GetTourBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			if s.cache != nil {
				if cacheErr := s.cache.SetNegativeCache(ctx, slug); cacheErr != nil {
					s.logger.WarnContext(ctx, "negative cache write failed", slog.String("error", cacheErr.Error()))
				}
			}
			return nil, apperr.NotFound("No tour found with that name")
		}
		return nil, fmt.Errorf("failed to get tour by slug: %w", err)
	}

	// Secret tours never enter the cache: the secret flag does not
	// survive the JSON round trip, and a caller-dependent result must
	// not be served from a shared key. No negative entry either, or a
	// manager's lookup would start missing.
	if tour.Secret {
		if !canSeeSecretTours(ctx) {
			return nil, apperr.NotFound("No tour found with that name")
		}
		s.metrics.ObserveTourLookupDuration(s.now().Sub(start))
		return tour, nil
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetTour(ctx, tour); cacheErr != nil {
			s.logger.WarnContext(ctx, "tour cache write failed", slog.String("error", cacheErr.Error()))
		}
	}

	s.metrics.ObserveTourLookupDuration(s.now().Sub(start))
	return tour, nil
}

// UpdateTour validates and replaces a tour's mutable fields.
func (s *TourService) UpdateTour(ctx context.Context, id string, input TourInput) (*model.Tour, error) {
	existing, err := s.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.buildTour(input)
	if err != nil {
		return nil, err
	}
	if err := s.validateGuides(ctx, updated.Guides); err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.RatingsAverage = existing.RatingsAverage
	updated.RatingsQuantity = existing.RatingsQuantity
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateTour(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrTourNameTaken) {
			return nil, apperr.Conflict("A tour with that name already exists")
		}
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}

	// Drop both slugs; a renamed tour moves its cache key.
	s.invalidate(ctx, existing.Slug)
	if updated.Slug != existing.Slug {
		s.invalidate(ctx, updated.Slug)
	}
	s.invalidateStats(ctx)

	s.metrics.IncTourUpdated()
	return updated, nil
}

// DeleteTour removes a tour and drops its cache entries.
func (s *TourService) DeleteTour(ctx context.Context, id string) error {
	tour, err := s.GetTour(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTour(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return apperr.NotFound("No tour found with that ID")
		}
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	s.invalidate(ctx, tour.Slug)
	s.invalidateStats(ctx)
	s.metrics.IncTourDeleted()
	return nil
}

// ListTours runs the query pipeline over the public catalog.
func (s *TourService) ListTours(ctx context.Context, params url.Values) ([]query.Document, error) {
	docs, err := s.repo.ListTours(ctx, query.Build(params))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidListQuery) {
			return nil, apperr.Validation("Invalid query parameter")
		}
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	return docs, nil
}

// TopCheapParams returns the canned parameters for the top-5-cheap
// preset. The preset is an alias: it runs through the same pipeline as
// any client-supplied query.
func TopCheapParams() url.Values {
	return url.Values{
		"limit":  {"5"},
		"sort":   {"-ratings_average,price"},
		"fields": {"name,price,ratings_average,summary,difficulty"},
	}
}

// GetTourStats returns the per-difficulty aggregates, cached briefly.
func (s *TourService) GetTourStats(ctx context.Context) ([]model.TourStats, error) {
	if s.cache != nil {
		if stats, err := s.cache.GetTourStats(ctx); err == nil {
			return stats, nil
		}
	}

	stats, err := s.repo.GetTourStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour stats: %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetTourStats(ctx, stats); cacheErr != nil {
			s.logger.WarnContext(ctx, "stats cache write failed", slog.String("error", cacheErr.Error()))
		}
	}

	return stats, nil
}

// GetMonthlyPlan returns departures per month for a year.
func (s *TourService) GetMonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlanEntry, error) {
	if year < 1000 || year > 9999 {
		return nil, apperr.Validation("Please provide a four-digit year")
	}

	plan, err := s.repo.GetMonthlyPlan(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly plan: %w", err)
	}
	return plan, nil
}

const milesPerKilometer = 0.621371

// ToursWithin lists non-secret tours whose start point lies within
// distance of the center, where distance is given in unit (mi or km).
func (s *TourService) ToursWithin(ctx context.Context, distance, lat, lng float64, unit string) ([]model.Tour, error) {
	if distance <= 0 {
		return nil, apperr.Validation("Please provide a positive distance")
	}
	if err := validateLatLng(lat, lng); err != nil {
		return nil, err
	}

	radiusKm, err := toKilometers(distance, unit)
	if err != nil {
		return nil, err
	}

	tours, err := s.repo.ToursWithin(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours within radius: %w", err)
	}
	return tours, nil
}

// TourDistances returns the distance from the given point to every
// non-secret tour with a start point, nearest first, in unit.
func (s *TourService) TourDistances(ctx context.Context, lat, lng float64, unit string) ([]model.TourDistance, error) {
	if err := validateLatLng(lat, lng); err != nil {
		return nil, err
	}
	if unit != "km" && unit != "mi" {
		return nil, apperr.Validation("Unit must be either mi or km")
	}

	distances, err := s.repo.TourDistances(ctx, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour distances: %w", err)
	}

	if unit == "mi" {
		for i := range distances {
			distances[i].Distance *= milesPerKilometer
		}
	}
	return distances, nil
}

// validateGuides checks that every guide ID references an existing
// active account. Duplicates are rejected to keep the roster clean.
func (s *TourService) validateGuides(ctx context.Context, guides []string) error {
	seen := make(map[string]bool, len(guides))
	for _, id := range guides {
		if seen[id] {
			return apperr.Validation("Duplicate guide: " + id)
		}
		seen[id] = true

		user, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperr.Validation("No user found for guide ID " + id)
			}
			return fmt.Errorf("failed to look up guide: %w", err)
		}
		if !user.Active {
			return apperr.Validation("No user found for guide ID " + id)
		}
	}
	return nil
}

func toKilometers(distance float64, unit string) (float64, error) {
	switch unit {
	case "km":
		return distance, nil
	case "mi":
		return distance / milesPerKilometer, nil
	default:
		return 0, apperr.Validation("Unit must be either mi or km")
	}
}

// canSeeSecretTours reports whether the request carries a principal
// allowed to see secret tours. Catalog managers only; everyone else
// gets the same not-found a missing tour would produce.
func canSeeSecretTours(ctx context.Context) bool {
	principal := auth.PrincipalFromContext(ctx)
	return principal != nil && principal.Is(model.RolePublisher, model.RoleAdmin)
}

func validateLatLng(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.Validation("Please provide latitude and longitude in the format lat,lng")
	}
	return nil
}

// RecordView publishes a view event to the analytics stream. Fire and
// forget: a full or unavailable stream never blocks the read path.
func (s *TourService) RecordView(ctx context.Context, tourID, userID, source, visitorHash string, tags []string) {
	if s.publisher == nil {
		return
	}

	event := &model.TourViewEvent{
		TourID:      tourID,
		UserID:      userID,
		Source:      source,
		Tags:        tags,
		VisitorHash: visitorHash,
		ViewedAt:    s.now().UTC(),
	}

	s.publisher.PublishAsync(ctx, event)
}

func (s *TourService) buildTour(input TourInput) (*model.Tour, error) {
	name := strings.TrimSpace(input.Name)
	if len(name) < minTourNameLength || len(name) > maxTourNameLength {
		return nil, apperr.Validation("A tour name must have between 10 and 40 characters")
	}
	if input.Price <= 0 {
		return nil, apperr.Validation("A tour must have a positive price")
	}
	if input.PriceDiscount != nil && *input.PriceDiscount >= input.Price {
		return nil, apperr.Validation("Discount price should be below regular price")
	}
	if input.Duration <= 0 {
		return nil, apperr.Validation("A tour must have a duration")
	}
	if input.MaxGroupSize <= 0 {
		return nil, apperr.Validation("A tour must have a group size")
	}
	difficulty := model.Difficulty(input.Difficulty)
	if !difficulty.Valid() {
		return nil, apperr.Validation("Difficulty is either: easy, medium, difficult")
	}
	if strings.TrimSpace(input.Summary) == "" {
		return nil, apperr.Validation("A tour must have a summary")
	}
	if (input.StartLat == nil) != (input.StartLng == nil) {
		return nil, apperr.Validation("A start location needs both latitude and longitude")
	}
	if input.StartLat != nil {
		if err := validateLatLng(*input.StartLat, *input.StartLng); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	return &model.Tour{
		ID:              newID(),
		Name:            name,
		Slug:            Slugify(name),
		Price:           input.Price,
		PriceDiscount:   input.PriceDiscount,
		Duration:        input.Duration,
		MaxGroupSize:    input.MaxGroupSize,
		Difficulty:      difficulty,
		RatingsAverage:  4.5,
		RatingsQuantity: 0,
		Summary:         strings.TrimSpace(input.Summary),
		Description:     strings.TrimSpace(input.Description),
		ImageCover:      input.ImageCover,
		Images:          input.Images,
		StartDates:      input.StartDates,
		StartLat:        input.StartLat,
		StartLng:        input.StartLng,
		Guides:          input.Guides,
		Secret:          input.Secret,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *TourService) invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTour(ctx, slug); err != nil {
		s.logger.WarnContext(ctx, "tour cache invalidation failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
	}
}

func (s *TourService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTourStats(ctx); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed", slog.String("error", err.Error()))
	}
}

// Slugify lowercases a name and collapses every non-alphanumeric run
// to a single hyphen.
func Slugify(name string) string {
	slug := slugStripRegex.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
