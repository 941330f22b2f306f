package middleware

import (
	"net/http"
	"slices"
)

// RequireRoles allows the request only when the token's role is one of allowedRoles.
// It must run after AuthMiddleware.
func RequireRoles(allowedRoles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if !slices.Contains(allowedRoles, claims.Role) {
				writeError(w, http.StatusForbidden, "Forbidden: insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

// HasRole reports whether the caller's token carries one of roles.
func HasRole(r *http.Request, roles ...string) bool {
	claims, ok := ClaimsFromContext(r.Context())
	return ok && slices.Contains(roles, claims.Role)
}
