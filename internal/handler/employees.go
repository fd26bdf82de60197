package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/service"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
)

// EmployeesHandler serves the directory collection
type EmployeesHandler struct {
	directory    *service.Directory
	logger       *slog.Logger
	reloadOnRead bool
}

// NewEmployeesHandler creates a new employees handler
func NewEmployeesHandler(directory *service.Directory, logger *slog.Logger, cfg *config.Config) *EmployeesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeesHandler{
		directory:    directory,
		logger:       logger,
		reloadOnRead: cfg != nil && cfg.ReloadOnRead,
	}
}

// List handles GET /api/employees with optional filter parameters
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := domain.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err, "invalid query", h.logger)
		return
	}

	if h.reloadOnRead {
		if err := h.directory.Load(r.Context(), "request"); err != nil {
			writeError(w, err, "failed to load directory", h.logger)
			return
		}
	}

	view := h.directory.View(q)
	if view.Err != nil {
		writeError(w, view.Err, "failed to load directory", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view.Records, h.logger)
}

// Create handles POST /api/employees
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	employee, err := h.directory.Add(r.Context(), raw)
	if err != nil {
		writeError(w, err, "failed to save record", h.logger)
		return
	}

	h.logger.Info("employee added",
		slog.String("id", employee.ID),
		slog.String("unit", employee.Unit),
	)
	writeJSON(w, http.StatusCreated, employee, h.logger)
}

// Update handles PUT /api/employees/{id}
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	employee, err := h.directory.Update(r.Context(), id, raw)
	if err != nil {
		writeError(w, err, "failed to update record", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, employee, h.logger)
}

// Delete handles DELETE /api/employees/{id}
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.directory.Dispatch(r.Context(), service.DeleteRecord{ID: id}); err != nil {
		writeError(w, err, "failed to delete record", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EmployeesHandler) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.RawRecord, bool) {
	var raw domain.RawRecord
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		h.logger.Debug("failed to decode record")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON record"}, h.logger)
		return nil, false
	}
	return raw, true
}
