package handler

import (
	"fmt"
	"net/http"

	"github.com/tourbase/tourbase/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "tourbase_tour_cache_hits_total %d\n", snap.TourCacheHits)
	writeMetric(w, "tourbase_tour_cache_misses_total %d\n", snap.TourCacheMisses)
	writeMetric(w, "tourbase_tour_lookup_duration_seconds_count %d\n", snap.TourLookupCount)
	writeMetric(w, "tourbase_tour_lookup_duration_seconds_sum %.6f\n", float64(snap.TourLookupTotalNs)/1e9)

	writeMetric(w, "tourbase_tours_created_total %d\n", snap.ToursCreated)
	writeMetric(w, "tourbase_tours_updated_total %d\n", snap.ToursUpdated)
	writeMetric(w, "tourbase_tours_deleted_total %d\n", snap.ToursDeleted)

	writeMetric(w, "tourbase_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "tourbase_logins_total{status=\"failure\"} %d\n", snap.LoginFailures)
	writeMetric(w, "tourbase_signups_total %d\n", snap.Signups)
	writeMetric(w, "tourbase_password_resets_total %d\n", snap.PasswordResets)
	writeMetric(w, "tourbase_bookings_created_total %d\n", snap.BookingsCreated)

	writeMetric(w, "tourbase_view_events_published_total{status=\"success\"} %d\n", snap.ViewEventsPublished)
	writeMetric(w, "tourbase_view_events_published_total{status=\"dropped\"} %d\n", snap.ViewEventsDropped)

	writeMetric(w, "tourbase_view_events_processed_total{status=\"success\"} %d\n", snap.ViewEventsProcessed)
	writeMetric(w, "tourbase_view_events_processed_total{status=\"failed\"} %d\n", snap.ViewEventsFailed)
	writeMetric(w, "tourbase_view_events_processed_total{status=\"dead_lettered\"} %d\n", snap.ViewEventsDeadLettered)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
