package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/modelplane/router/services/providers"
	"github.com/modelplane/router/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Providers map[string]string `json:"providers,omitempty"`
}

// ProviderHealth answers per-provider health questions for the
// readiness endpoint
type ProviderHealth interface {
	IsHealthy(ctx context.Context, provider string) bool
	Source() string
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       *sql.DB
	registry *providers.Registry
	health   ProviderHealth
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, registry *providers.Registry, health ProviderHealth, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		registry: registry,
		health:   health,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Basic liveness check, returns 200 whenever the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Validates the database and reports per-provider availability
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	providerStates := make(map[string]string)
	if h.health != nil && h.registry != nil {
		checks["health_source"] = h.health.Source()
		anyHealthy := false
		for _, name := range h.registry.List() {
			if h.health.IsHealthy(ctx, name) {
				providerStates[name] = "healthy"
				anyHealthy = true
			} else {
				providerStates[name] = "unhealthy"
			}
		}
		// the engine can still route (degraded) with no healthy
		// providers, so this does not fail readiness, only reports
		if !anyHealthy {
			checks["providers"] = "degraded"
		} else {
			checks["providers"] = "healthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Providers: providerStates,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}
