package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tourbase/tourbase/internal/query"
)

// ErrInvalidListQuery wraps translator rejections (unknown fields) so
// callers can map them to a 400 without inspecting SQL errors.
var ErrInvalidListQuery = errors.New("invalid list query")

// Per-collection translators. The column lists mirror the migrations;
// password and ticket columns are deliberately absent from users so no
// list query can ever select or filter on them.
var (
	userTranslator = &query.Translator{
		Table:   "users",
		Columns: []string{"id", "name", "email", "photo", "role", "active", "created_at"},
	}

	tourTranslator = &query.Translator{
		Table: "tours",
		Columns: []string{
			"id", "name", "slug", "price", "price_discount", "duration",
			"max_group_size", "difficulty", "ratings_average", "ratings_quantity",
			"summary", "description", "image_cover", "start_lat", "start_lng",
			"secret", "created_at", "updated_at", "lock_version",
		},
		VersionColumn: "lock_version",
	}

	reviewTranslator = &query.Translator{
		Table:   "reviews",
		Columns: []string{"id", "tour_id", "user_id", "rating", "text", "created_at"},
	}

	bookingTranslator = &query.Translator{
		Table:   "bookings",
		Columns: []string{"id", "tour_id", "user_id", "price", "paid", "created_at"},
	}
)

// list translates a spec and executes it, mapping each row to a
// Document keyed by column name. This is the single execution point of
// the query pipeline: filter, sort, project, and paginate all arrive
// here as one parameterized statement.
func (r *Repository) list(ctx context.Context, t *query.Translator, spec *query.Spec, fixed ...query.Cond) ([]query.Document, error) {
	sql, args, err := t.Translate(spec, fixed...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListQuery, err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	docs := make([]query.Document, 0, spec.PageSize)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.Table, err)
		}

		doc := make(query.Document, len(fields))
		for i, fd := range fields {
			doc[fd.Name] = values[i]
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", t.Table, err)
	}

	return docs, nil
}
