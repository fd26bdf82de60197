package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/staffdir/internal/service"
)

// FiltersHandler returns the choices offered by the filter dropdowns
type FiltersHandler struct {
	directory *service.Directory
	log       *slog.Logger
}

// NewFiltersHandler creates a new filters handler
func NewFiltersHandler(directory *service.Directory, log *slog.Logger) *FiltersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FiltersHandler{directory: directory, log: log}
}

// ServeHTTP implements the HTTP handler for filter options
func (h *FiltersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.directory.Options(), h.log)
}
