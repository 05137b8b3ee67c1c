package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrOutboxEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrOutboxNotRequeuable),
		errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAccountData),
		errors.Is(err, domain.ErrInvalidTransactionData),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransactionType),
		errors.Is(err, domain.ErrNegativeBalance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status mapDomainError picks.
// Internal errors never leak their text.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, message, "")
		return
	}
	writeError(w, status, message, err.Error())
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
