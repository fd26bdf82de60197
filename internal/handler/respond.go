package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

// maxBodyBytes caps request bodies; a single employee record is small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// statusFor maps the directory's error taxonomy to an HTTP status
func statusFor(err error) int {
	var (
		validationErr  *domain.ValidationError
		dateErr        *domain.InvalidDateError
		unsupportedErr *domain.UnsupportedOperationError
		notFoundErr    *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &dateErr):
		return http.StatusBadRequest
	case errors.As(err, &unsupportedErr):
		return http.StatusMethodNotAllowed
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err. Server-side failures are logged
// and their details withheld from the client.
func writeError(w http.ResponseWriter, err error, msg string, log *slog.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, slog.String("error", err.Error()))
		writeJSON(w, status, errorResponse{Error: msg}, log)
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()}, log)
}
