package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourbase/tourbase/internal/analytics"
	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/handler/dto"
	"github.com/tourbase/tourbase/internal/middleware"
	"github.com/tourbase/tourbase/internal/service"
)

// TourHandler handles catalog endpoints.
type TourHandler struct {
	svc    *service.TourService
	logger *slog.Logger
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(svc *service.TourService, logger *slog.Logger) *TourHandler {
	return &TourHandler{
		svc:    svc,
		logger: logger.With("component", "handler.tour"),
	}
}

// List handles GET /api/v1/tours.
// Filtering, sorting, projection and pagination come straight from the
// query string.
func (h *TourHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListTours(r.Context(), r.URL.Query())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(docs),
		Data:    docs,
	})
}

// TopCheap handles GET /api/v1/tours/top-5-cheap.
// A preset listing: the five best-rated tours, cheapest first on ties.
func (h *TourHandler) TopCheap(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListTours(r.Context(), service.TopCheapParams())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(docs),
		Data:    docs,
	})
}

// Get handles GET /api/v1/tours/{id}.
func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	tour, err := h.svc.GetTour(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.recordView(r, tour.ID)
	writeJSON(w, http.StatusOK, tour)
}

// GetBySlug handles GET /api/v1/tours/slug/{slug}.
func (h *TourHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := middleware.ValidateSlug(slug); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_SLUG", "Invalid tour slug")
		return
	}

	tour, err := h.svc.GetTourBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.recordView(r, tour.ID)
	writeJSON(w, http.StatusOK, tour)
}

// Create handles POST /api/v1/tours.
func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	tour, err := h.svc.CreateTour(r.Context(), tourInputFromRequest(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("tour_created", "tour_id", tour.ID, "slug", tour.Slug)

	writeJSON(w, http.StatusCreated, tour)
}

// Update handles PATCH /api/v1/tours/{id}.
func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	var req dto.TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	tour, err := h.svc.UpdateTour(r.Context(), id, tourInputFromRequest(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("tour_updated", "tour_id", tour.ID, "slug", tour.Slug)

	writeJSON(w, http.StatusOK, tour)
}

// Delete handles DELETE /api/v1/tours/{id}.
func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	if err := h.svc.DeleteTour(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("tour_deleted", "tour_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/tours/stats.
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetTourStats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/{year}.
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide a four-digit year")
		return
	}

	plan, err := h.svc.GetMonthlyPlan(r.Context(), year)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"year": year, "plan": plan})
}

// ToursWithin handles GET /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit}.
func (h *TourHandler) ToursWithin(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide a numeric distance")
		return
	}

	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide latitude and longitude in the format lat,lng")
		return
	}

	tours, err := h.svc.ToursWithin(r.Context(), distance, lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(tours),
		Data:    tours,
	})
}

// Distances handles GET /api/v1/tours/distances/{latlng}/unit/{unit}.
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide latitude and longitude in the format lat,lng")
		return
	}

	distances, err := h.svc.TourDistances(r.Context(), lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(distances),
		Data:    distances,
	})
}

// parseLatLng splits a "lat,lng" path segment into its coordinates.
func parseLatLng(latlng string) (float64, float64, error) {
	rawLat, rawLng, ok := strings.Cut(latlng, ",")
	if !ok {
		return 0, 0, errors.New("missing comma separator")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// recordView emits a view event for a successful detail read.
func (h *TourHandler) recordView(r *http.Request, tourID string) {
	now := time.Now().UTC()
	visitorHash := analytics.GenerateVisitorHash(clientIP(r), r.UserAgent(), now)

	var userID string
	if principal := auth.PrincipalFromContext(r.Context()); principal != nil {
		userID = principal.UserID
	}

	source := analytics.NormalizeSource(r.URL.Query().Get("source"))
	tags := analytics.NormalizeTags(strings.Split(r.URL.Query().Get("tags"), ","))

	h.svc.RecordView(r.Context(), tourID, userID, source, visitorHash, tags)
}

// tourInputFromRequest maps the request DTO onto the service input.
func tourInputFromRequest(req dto.TourRequest) service.TourInput {
	return service.TourInput{
		Name:          req.Name,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		StartLat:      req.StartLat,
		StartLng:      req.StartLng,
		Guides:        req.Guides,
		Secret:        req.Secret,
	}
}

// clientIP extracts the originating client IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
