package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/modelplane/router/internal/observability"
	"github.com/modelplane/router/services/routing"
	"github.com/modelplane/router/utils"
)

// AdminService defines the cache maintenance and stats operations
type AdminService interface {
	InvalidateUserCache(userID string) int
	InvalidateProviderCache(provider string) int
	CacheStats() routing.CacheStats
	DedupStats() routing.DedupStats
}

// AdminHandler handles cache invalidation and stats HTTP requests
type AdminHandler struct {
	service   AdminService
	collector *observability.Collector
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminService, collector *observability.Collector, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:   service,
		collector: collector,
		logger:    logger,
	}
}

// HandleInvalidateUser handles DELETE /api/v1/cache/users/{userID}
func (h *AdminHandler) HandleInvalidateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		_ = utils.WriteBadRequest(w, "user ID is required", nil)
		return
	}

	removed := h.service.InvalidateUserCache(userID)

	h.logger.Info("user cache invalidated",
		zap.String("user_id", userID),
		zap.Int("removed", removed))

	_ = utils.WriteOK(w, map[string]interface{}{
		"user_id": userID,
		"removed": removed,
	})
}

// HandleInvalidateProvider handles DELETE /api/v1/cache/providers/{provider}
func (h *AdminHandler) HandleInvalidateProvider(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		_ = utils.WriteBadRequest(w, "provider is required", nil)
		return
	}

	removed := h.service.InvalidateProviderCache(provider)

	h.logger.Info("provider cache invalidated",
		zap.String("provider", provider),
		zap.Int("removed", removed))

	_ = utils.WriteOK(w, map[string]interface{}{
		"provider": provider,
		"removed":  removed,
	})
}

// HandleStats handles GET /api/v1/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"cache": h.service.CacheStats(),
		"dedup": h.service.DedupStats(),
	}
	if h.collector != nil {
		response["metrics"] = h.collector.Snapshot()
	}

	_ = utils.WriteOK(w, response)
}
