// Package analytics provides tour view event capture and processing.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourbase/tourbase/internal/metrics"
	"github.com/tourbase/tourbase/internal/model"
)

const (
	// StreamKey is the Redis stream for view events.
	StreamKey = "stream:tour_views"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:tour_views:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// ViewEventPayload is the compressed event format for Redis stream.
type ViewEventPayload struct {
	TourID      string   `json:"tid"`
	UserID      string   `json:"uid,omitempty"`
	Source      string   `json:"s,omitempty"`
	Tags        []string `json:"tg,omitempty"`
	VisitorHash string   `json:"vh"`
	ViewedAt    int64    `json:"t"` // Unix milliseconds
}

// Publisher enqueues view events to Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new analytics event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// Publish adds a view event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, payload ViewEventPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget). The request
// context is intentionally not inherited so a finished request does not
// cancel an in-flight publish.
func (p *Publisher) PublishAsync(_ context.Context, event *model.TourViewEvent) {
	payload := PayloadFromEvent(event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, payload)
		if err != nil {
			p.logger.Warn("failed to publish view event",
				"tour_id", payload.TourID,
				"error", err,
			)
			p.metrics.IncViewEventPublished("dropped")
			return
		}

		p.logger.Debug("view event published",
			"tour_id", payload.TourID,
			"stream_id", streamID,
		)
		p.metrics.IncViewEventPublished("success")
	}()
}

// PayloadFromEvent converts a view event to its wire format.
func PayloadFromEvent(event *model.TourViewEvent) ViewEventPayload {
	return ViewEventPayload{
		TourID:      event.TourID,
		UserID:      event.UserID,
		Source:      event.Source,
		Tags:        event.Tags,
		VisitorHash: event.VisitorHash,
		ViewedAt:    event.ViewedAt.UnixMilli(),
	}
}

// GenerateVisitorHash creates a privacy-safe visitor identifier.
// Uses SHA256(IP + UserAgent + daily_salt) truncated to 16 hex chars.
func GenerateVisitorHash(ip, userAgent string, viewedAt time.Time) string {
	// Daily salt rotates at midnight UTC
	dailySalt := fmt.Sprintf("tourbase:%s", viewedAt.UTC().Format("2006-01-02"))

	data := ip + userAgent + dailySalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}

// NormalizeSource maps a raw source hint to one of the known values.
// Unknown hints collapse to empty string rather than propagating
// arbitrary client input into the store.
func NormalizeSource(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "api":
		return "api"
	case "web":
		return "web"
	default:
		return ""
	}
}

// NormalizeTags trims, lowercases and deduplicates view tags. At most
// maxTagsPerEvent tags survive; the rest are dropped in input order.
func NormalizeTags(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || len(tag) > maxTagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxTagsPerEvent {
			break
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
