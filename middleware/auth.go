package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"dharmaverse/logger"
	"dharmaverse/models"
	"dharmaverse/utils"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*utils.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(validator TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			requestID := RequestID(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         ClientIP(r),
				}).Warn("Missing or malformed authorization header")

				writeError(w, http.StatusUnauthorized, "Authorization header required", nil)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         ClientIP(r),
					"error":      err.Error(),
				}).Warn("Invalid or expired token")

				writeError(w, http.StatusUnauthorized, "Invalid or expired token", err)
				return
			}

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"user_id":    claims.UserID,
				"role":       claims.Role,
			}).Debug("User authenticated")

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		}
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise lets the request through.
func OptionalAuth(validator TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := validator.Validate(token); err == nil {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse(message, err))
}
