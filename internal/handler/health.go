package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/service"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	directory *service.Directory
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(directory *service.Directory, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		directory: directory,
		logger:    logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Records int               `json:"records"`
	Checks  map[string]string `json:"checks"`
}

// Health handles GET /healthz - Simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"}, h.logger)
}

// Ready handles GET /readyz. The backing store must answer a ping when it
// has a reachable backend; the last load outcome is reported but not gating.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if pinger, ok := h.directory.Store().(domain.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			checks["store"] = "error: " + err.Error()
			ready = false
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not required"
	}

	state := h.directory.Snapshot()
	if state.Err != nil {
		checks["last_load"] = "error: " + state.Err.Error()
	} else {
		checks["last_load"] = "ok"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadinessResponse{
		Status:  status,
		Records: len(state.Records),
		Checks:  checks,
	}, h.logger)

	h.logger.Debug("readiness check",
		slog.String("status", status),
		slog.String("store", checks["store"]),
	)
}
