package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourbase/tourbase/internal/analytics"
	"github.com/tourbase/tourbase/internal/handler/dto"
	"github.com/tourbase/tourbase/internal/middleware"
)

// AnalyticsHandler serves view statistics for tours.
type AnalyticsHandler struct {
	store  *analytics.Store
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(store *analytics.Store, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:  store,
		logger: logger.With("component", "handler.analytics"),
	}
}

// TourViews handles GET /api/v1/tours/{id}/views.
// Returns the daily view rollup for the requested range (default: the
// last 7 days, capped at 90).
func (h *AnalyticsHandler) TourViews(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(tourID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	from, to := parseTimeRange(r)

	daily, err := h.store.GetDailyStats(r.Context(), tourID, from, to)
	if err != nil {
		h.logger.Error("failed to get daily view stats", "tour_id", tourID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch view stats")
		return
	}

	total, err := h.store.CountViews(r.Context(), tourID)
	if err != nil {
		h.logger.Error("failed to count views", "tour_id", tourID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch view stats")
		return
	}

	response := dto.TourViewStatsResponse{
		TourID:     tourID,
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		TotalViews: total,
		Daily:      make([]dto.DailyViewStat, 0, len(daily)),
	}
	for _, stat := range daily {
		response.Daily = append(response.Daily, dto.DailyViewStat{
			Day:            stat.Day.Format("2006-01-02"),
			Views:          stat.Views,
			UniqueVisitors: stat.UniqueVisitors,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// parseTimeRange extracts from/to dates from query params.
func parseTimeRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if parsed, err := time.Parse("2006-01-02", fromStr); err == nil {
			from = parsed
		}
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		if parsed, err := time.Parse("2006-01-02", toStr); err == nil {
			to = parsed
		}
	}

	// Cap to 90 days max
	if to.Sub(from) > 90*24*time.Hour {
		from = to.AddDate(0, 0, -90)
	}

	// Don't allow future dates
	if to.After(now) {
		to = now
	}

	return from, to
}
