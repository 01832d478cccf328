package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tourbase/tourbase/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// resetSchema applies the down then up migration for one numbered pair.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", name+".down.sql")
	upPath := filepath.Join(root, "migrations", name+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_users")
}

// ResetToursSchema drops and recreates the tours schema for tests.
func ResetToursSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000002_tours")
}

// ResetReviewsSchema drops and recreates the reviews schema for tests.
// Reviews reference tours and users, so those must exist first.
func ResetReviewsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000003_reviews")
}

// ResetBookingsSchema drops and recreates the bookings schema for tests.
func ResetBookingsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000004_bookings")
}

// ResetViewEventsSchema drops and recreates the view events schema for tests.
func ResetViewEventsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000005_tour_view_events")
}

// ResetViewDailySchema drops and recreates the daily view rollup for tests.
func ResetViewDailySchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000006_tour_view_daily")
}

// ResetAllSchemas recreates every table in dependency order.
func ResetAllSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	// Drop children before parents.
	for _, name := range []string{
		"000006_tour_view_daily",
		"000005_tour_view_events",
		"000004_bookings",
		"000003_reviews",
	} {
		root, err := ProjectRoot()
		if err != nil {
			return err
		}
		downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
		if err != nil {
			return fmt.Errorf("read down migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply down migration: %w", err)
		}
	}

	if err := ResetUsersSchema(ctx, pool); err != nil {
		return err
	}
	if err := ResetToursSchema(ctx, pool); err != nil {
		return err
	}
	if err := ResetReviewsSchema(ctx, pool); err != nil {
		return err
	}
	if err := ResetBookingsSchema(ctx, pool); err != nil {
		return err
	}
	if err := ResetViewEventsSchema(ctx, pool); err != nil {
		return err
	}
	return ResetViewDailySchema(ctx, pool)
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:           UniqueID("user"),
		Name:         "Test User",
		Email:        email,
		Photo:        "default.jpg",
		Role:         model.RoleUser,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$dGVzdHNhbHQ$dGVzdGhhc2g",
		Active:       true,
		CreatedAt:    now,
	}
}

// NewTestTour creates a test tour with sensible defaults.
func NewTestTour(t testing.TB, name string) *model.Tour {
	t.Helper()
	now := time.Now().UTC()
	return &model.Tour{
		ID:              UniqueID("tour"),
		Name:            name,
		Slug:            UniqueID("slug"),
		Price:           497,
		Duration:        7,
		MaxGroupSize:    15,
		Difficulty:      model.DifficultyMedium,
		RatingsAverage:  4.5,
		RatingsQuantity: 0,
		Summary:         "Exploring the jaw-dropping US east coast by foot and by boat",
		ImageCover:      "tour-cover.jpg",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewTestReview creates a test review linking a user and a tour.
func NewTestReview(t testing.TB, tourID, userID string) *model.Review {
	t.Helper()
	return &model.Review{
		ID:        UniqueID("review"),
		TourID:    tourID,
		UserID:    userID,
		Rating:    4,
		Text:      "Loved every minute of it",
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestBooking creates a test booking linking a user and a tour.
func NewTestBooking(t testing.TB, tourID, userID string) *model.Booking {
	t.Helper()
	return &model.Booking{
		ID:        UniqueID("booking"),
		TourID:    tourID,
		UserID:    userID,
		Price:     497,
		Paid:      true,
		CreatedAt: time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
