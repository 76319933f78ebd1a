// Package httpapi holds the response helpers shared by the server's
// handlers: JSON encoding and the mapping from service errors to status
// codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nording/breathe/internal/auth"
	"github.com/nording/breathe/internal/domain"
)

func JSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func Error(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ErrorFrom maps a service error onto its HTTP status and writes it.
// Errors outside the known set are logged and reported as a plain 500.
func ErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrBadToken):
		Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyCompleted), errors.Is(err, auth.ErrEmailTaken):
		Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("internal error: %v", err)
		Error(w, "internal server error", http.StatusInternalServerError)
	}
}
