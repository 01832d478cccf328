package middleware

import (
	"fmt"
	"net/http"

	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/model"
)

// RequireRole returns middleware that enforces role requirements.
// Must be applied after Protect. Holding ANY of the listed roles is
// sufficient; there is no implied hierarchy, so admin routes must name
// admin explicitly.
func RequireRole(required ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				writeRoleError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if !principal.Is(required...) {
				writeRoleError(w, http.StatusForbidden, "FORBIDDEN",
					"You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only routes.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequirePublisher is a convenience middleware for catalog management
// routes, which admins may also use.
func RequirePublisher() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, model.RolePublisher)
}

// writeRoleError writes a role-related error response.
func writeRoleError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"error":{"code":"%s","message":"%s"}}`, code, message)))
}
