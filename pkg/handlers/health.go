package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/config"
	"github.com/hindsightlog/hindsight/pkg/database"
)

// HealthResponse contains service status and version information.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil, in which case
// the database check reports "not_configured" (unit tests).
func NewHealthHandler(cfg *config.Config, db *database.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health handles GET /health.
// Reports "ok" with a 200 when the database answers a ping, "degraded" with
// a 503 when it does not. Liveness probes can treat any response as alive;
// readiness probes should require the 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "hindsight",
		GoVersion:   runtime.Version(),
		Environment: h.cfg.Env,
		Database:    "not_configured",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Health check database ping failed", zap.Error(err))
			response.Status = "degraded"
			response.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "ok"
		}
	}

	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
