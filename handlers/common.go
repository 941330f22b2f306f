package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, models.ErrorResponse(message, err))
}

// decodeJSON reads a bounded JSON body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// invalidInput answers validation failures with 400 and reports whether err was one.
func invalidInput(w http.ResponseWriter, err error) bool {
	if errors.Is(err, services.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return true
	}
	return false
}

// actor returns the id and display name recorded in activity logs.
func actor(r *http.Request, fallbackName string) (string, string) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		name := claims.Name
		if name == "" {
			name = claims.UserID
		}
		return claims.UserID, name
	}
	if fallbackName == "" {
		fallbackName = services.AnonymousUser
	}
	return services.AnonymousUser, fallbackName
}

func parsePositiveInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
