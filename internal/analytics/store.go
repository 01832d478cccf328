// Package analytics provides tour view event capture and processing.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tourbase/tourbase/internal/model"
)

// DailyStat is one row of the per-tour daily view rollup.
type DailyStat struct {
	TourID         string
	Day            time.Time
	Views          int64
	UniqueVisitors int64
}

// Store persists view events and daily rollups. It runs on database/sql
// rather than the request-path pgx pool so heavy batch writes get their
// own connection settings.
type Store struct {
	db *sql.DB
}

// NewStore creates a view event store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// BulkInsert writes a batch of view events in a single statement.
// Replayed stream messages hit the event_id conflict and are skipped.
func (s *Store) BulkInsert(ctx context.Context, events []*model.TourViewEvent) error {
	if len(events) == 0 {
		return nil
	}

	var (
		placeholders = make([]string, 0, len(events))
		args         = make([]interface{}, 0, len(events)*8)
	)
	for i, event := range events {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		userID := sql.NullString{String: event.UserID, Valid: event.UserID != ""}
		args = append(args,
			event.ID,
			event.EventID,
			event.TourID,
			userID,
			event.Source,
			pq.Array(event.Tags),
			event.VisitorHash,
			event.ViewedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO tour_view_events (id, event_id, tour_id, user_id, source, tags, visitor_hash, viewed_at)
		VALUES %s
		ON CONFLICT (event_id) DO NOTHING`,
		strings.Join(placeholders, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert view events: %w", err)
	}
	return nil
}

// UpdateDailyStats folds a batch into the per-tour daily rollup.
// Unique visitor counts are approximate: a visitor seen in two batches
// on the same day is counted twice. The rollup trades that for a single
// upsert per (tour, day).
func (s *Store) UpdateDailyStats(ctx context.Context, events []*model.TourViewEvent) error {
	if len(events) == 0 {
		return nil
	}

	type bucket struct {
		views    int64
		visitors map[string]struct{}
	}
	type key struct {
		tourID string
		day    time.Time
	}

	buckets := make(map[key]*bucket)
	for _, event := range events {
		day := event.ViewedAt.UTC().Truncate(24 * time.Hour)
		k := key{tourID: event.TourID, day: day}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{visitors: make(map[string]struct{})}
			buckets[k] = b
		}
		b.views++
		b.visitors[event.VisitorHash] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin daily stats tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO tour_view_daily (tour_id, day, views, unique_visitors)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tour_id, day) DO UPDATE SET
			views = tour_view_daily.views + EXCLUDED.views,
			unique_visitors = tour_view_daily.unique_visitors + EXCLUDED.unique_visitors`

	for k, b := range buckets {
		if _, err := tx.ExecContext(ctx, upsert, k.tourID, k.day, b.views, int64(len(b.visitors))); err != nil {
			return fmt.Errorf("upsert daily stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit daily stats: %w", err)
	}
	return nil
}

// GetDailyStats returns the rollup rows for one tour over a date range,
// most recent day first.
func (s *Store) GetDailyStats(ctx context.Context, tourID string, from, to time.Time) ([]DailyStat, error) {
	const query = `
		SELECT tour_id, day, views, unique_visitors
		FROM tour_view_daily
		WHERE tour_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC`

	rows, err := s.db.QueryContext(ctx, query, tourID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var stat DailyStat
		if err := rows.Scan(&stat.TourID, &stat.Day, &stat.Views, &stat.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}
	return stats, nil
}

// CountViews returns the total recorded views for a tour.
func (s *Store) CountViews(ctx context.Context, tourID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tour_view_events WHERE tour_id = $1`, tourID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return count, nil
}
