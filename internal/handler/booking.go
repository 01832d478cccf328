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

// BookingHandler handles booking and checkout endpoints.
type BookingHandler struct {
	svc    *service.BookingService
	logger *slog.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(svc *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		svc:    svc,
		logger: logger.With("component", "handler.booking"),
	}
}

// CheckoutSession handles GET /api/v1/bookings/checkout-session/{tourID}.
func (h *BookingHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	if err := middleware.ValidateID(tourID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return
	}

	principal := auth.MustPrincipalFromContext(r.Context())

	session, err := h.svc.CreateCheckoutSession(r.Context(), tourID, principal)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("checkout_session_created", "tour_id", tourID, "reference_id", session.ReferenceID)

	writeJSON(w, http.StatusOK, session)
}

// Create handles POST /api/v1/bookings.
// Non-admin callers may only book for themselves.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	userID := req.UserID
	if userID == "" || !principal.Is(model.RoleAdmin) {
		userID = principal.UserID
	}

	paid := true
	if req.Paid != nil {
		paid = *req.Paid
	}

	booking, err := h.svc.CreateBooking(r.Context(), service.CreateBookingInput{
		TourID: req.TourID,
		UserID: userID,
		Price:  req.Price,
		Paid:   paid,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("booking_created", "booking_id", booking.ID, "tour_id", booking.TourID)

	writeJSON(w, http.StatusCreated, booking)
}

// Get handles GET /api/v1/bookings/{id}. Owner or admin.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	principal := auth.MustPrincipalFromContext(r.Context())

	booking, err := h.svc.GetBooking(r.Context(), id, principal)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// List handles GET /api/v1/bookings.
// Admins see every booking; everyone else sees their own.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	docs, err := h.svc.ListBookings(r.Context(), principal, r.URL.Query())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{
		Results: len(docs),
		Data:    docs,
	})
}

// Update handles PATCH /api/v1/bookings/{id}. Admin only.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req dto.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	booking, err := h.svc.UpdateBooking(r.Context(), id, service.UpdateBookingInput{
		Price: req.Price,
		Paid:  req.Paid,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("booking_updated", "booking_id", booking.ID)

	writeJSON(w, http.StatusOK, booking)
}

// Delete handles DELETE /api/v1/bookings/{id}. Admin only.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	if err := h.svc.DeleteBooking(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("booking_deleted", "booking_id", id)

	w.WriteHeader(http.StatusNoContent)
}
