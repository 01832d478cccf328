package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/handler/dto"
	"github.com/tourbase/tourbase/internal/middleware"
	"github.com/tourbase/tourbase/internal/service"
)

// AuthHandler handles account and credential endpoints.
type AuthHandler struct {
	svc       *service.AuthService
	logger    *slog.Logger
	cookieTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		logger:    logger.With("component", "handler.auth"),
		cookieTTL: cookieTTL,
	}
}

// SignUp handles POST /api/v1/users/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.SignUp(r.Context(), service.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_signed_up", "user_id", user.ID)

	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	})
}

// Login handles POST /api/v1/users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)

	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	})
}

// Logout handles GET /api/v1/users/logout.
// Stateless tokens cannot be revoked server-side; logout only clears
// the cookie so browser clients drop the credential.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ForgotPassword handles POST /api/v1/users/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Token sent to email"})
}

// ResetPassword handles PATCH /api/v1/users/reset-password/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rawNonce := chi.URLParam(r, "token")
	if rawNonce == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Reset token is required")
		return
	}

	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.ResetPassword(r.Context(), rawNonce, req.Password, req.PasswordConfirm)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("password_reset", "user_id", user.ID)

	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	})
}

// UpdatePassword handles PATCH /api/v1/users/update-password.
// Requires authentication.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustPrincipalFromContext(r.Context())

	var req dto.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, token, err := h.svc.UpdatePassword(r.Context(), principal.UserID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("password_updated", "user_id", user.ID)

	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	})
}

// setSessionCookie mirrors the bearer token into an HTTP-only cookie
// for browser clients.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports whether the request arrived over TLS,
// directly or via a terminating proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
