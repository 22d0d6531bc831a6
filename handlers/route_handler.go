package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/modelplane/router/middleware"
	"github.com/modelplane/router/models"
	"github.com/modelplane/router/utils"
)

// RouterService defines the routing operations used by the handler
type RouterService interface {
	SelectRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteDecision, error)
}

// RouteHandler handles routing decision HTTP requests
type RouteHandler struct {
	service RouterService
	logger  *zap.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(service RouterService, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRoute handles POST /api/v1/route
func (h *RouteHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req models.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	// authenticated callers may only route on their own behalf unless
	// they hold the admin role
	if claims := middleware.GetClaimsFromContext(ctx); claims != nil {
		if claims.Subject != "anonymous" && claims.Subject != req.UserID && !claims.HasRole("admin") {
			h.logger.Warn("user mismatch",
				zap.String("request_id", requestID),
				zap.String("subject", claims.Subject),
				zap.String("user_id", req.UserID))
			_ = utils.WriteForbidden(w, "Cannot route on behalf of another user")
			return
		}
	}

	decision, err := h.service.SelectRoute(ctx, &req)
	if err != nil {
		h.logger.Error("routing decision failed",
			zap.String("request_id", requestID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("routing decision served",
		zap.String("request_id", requestID),
		zap.String("user_id", req.UserID),
		zap.String("provider", decision.Provider),
		zap.String("model", decision.Model),
		zap.Float64("confidence", decision.Confidence))

	_ = utils.WriteOK(w, decision)
}
