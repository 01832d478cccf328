package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/handler/dto"
	"github.com/tourbase/tourbase/internal/middleware"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/service"
)

// ReviewHandler handles review endpoints, nested under tours.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		svc:    svc,
		logger: logger.With("component", "handler.review"),
	}
}

// ListForTour handles GET /api/v1/tours/{tourID}/reviews.
func (h *ReviewHandler) ListForTour(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	if err := middleware.ValidateID(tourID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	docs, err := h.svc.ListReviews(r.Context(), tourID, r.URL.Query())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(docs),
		Data:    docs,
	})
}

// Create handles POST /api/v1/tours/{tourID}/reviews.
// The author is always the authenticated caller.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	if err := middleware.ValidateID(tourID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	principal := auth.MustPrincipalFromContext(r.Context())

	var req dto.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	review, err := h.svc.CreateReview(r.Context(), service.CreateReviewInput{
		TourID: tourID,
		UserID: principal.UserID,
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("review_created", "review_id", review.ID, "tour_id", tourID)

	writeJSON(w, http.StatusCreated, review)
}

// Get handles GET /api/v1/reviews/{id}.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid review ID")
		return
	}

	review, err := h.svc.GetReview(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// Update handles PATCH /api/v1/reviews/{id}. Author only.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid review ID")
		return
	}

	principal := auth.MustPrincipalFromContext(r.Context())

	var req dto.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	review, err := h.svc.UpdateReview(r.Context(), id, principal.UserID, service.UpdateReviewInput{
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("review_updated", "review_id", review.ID)

	writeJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/v1/reviews/{id}.
// Authors delete their own reviews; admins delete any.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid review ID")
		return
	}

	principal := auth.MustPrincipalFromContext(r.Context())

	review, err := h.svc.GetReview(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if review.UserID != principal.UserID && !principal.Is(model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
		return
	}

	if err := h.svc.DeleteReview(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("review_deleted", "review_id", id)

	w.WriteHeader(http.StatusNoContent)
}
