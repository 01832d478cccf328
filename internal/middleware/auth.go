package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/repository"
)

// AuthCookieName is the cookie carrying the bearer token for browser
// clients. The Authorization header wins when both are present.
const AuthCookieName = "jwt"

// UserLoader loads accounts for token verification.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Users    UserLoader
	Verifier *auth.TokenIssuer
}

// Protect returns a middleware that authenticates requests. It
// verifies the bearer token, loads the account, and rejects tokens
// minted before the account's password watermark. The user row is read
// on every request; a cached principal would outlive a password
// change.
func Protect(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authenticate(cfg, w, r)
			if !ok {
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches a principal when valid credentials are present
// and passes the request through untouched otherwise. It never writes
// an error response.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolvePrincipal(r.Context(), cfg, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(cfg AuthConfig, w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	token := extractToken(r)
	if token == "" {
		logAuthFailure(cfg.Logger, r, "missing_token")
		writeAuthError(w, "You are not logged in. Please log in to get access")
		return nil, false
	}

	principal, err := resolvePrincipal(r.Context(), cfg, token)
	if err != nil {
		var reason, message string
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			reason, message = "token_expired", "Your token has expired. Please log in again"
		case errors.Is(err, errUserGone):
			reason, message = "user_gone", "The user belonging to this token no longer exists"
		case errors.Is(err, errStaleToken):
			reason, message = "stale_token", "Password was changed recently. Please log in again"
		default:
			reason, message = "invalid_token", "Invalid token. Please log in again"
		}
		logAuthFailure(cfg.Logger, r, reason)
		writeAuthError(w, message)
		return nil, false
	}

	return principal, true
}

var (
	errUserGone   = errors.New("user no longer exists")
	errStaleToken = errors.New("token predates password change")
)

// resolvePrincipal turns a raw token into a live principal, or reports
// why it cannot.
func resolvePrincipal(ctx context.Context, cfg AuthConfig, token string) (*model.Principal, error) {
	claims, err := cfg.Verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := cfg.Users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errUserGone
		}
		return nil, err
	}

	// A deactivated account reads the same as a deleted one.
	if !user.Active {
		return nil, errUserGone
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, errStaleToken
	}

	return &model.Principal{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the auth cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
