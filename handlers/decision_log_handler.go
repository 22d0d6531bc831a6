package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/modelplane/router/repositories"
	"github.com/modelplane/router/services"
	"github.com/modelplane/router/utils"
)

// Decision listing page bounds
const (
	defaultDecisionPageSize = 50
	maxDecisionPageSize     = 200
)

// DecisionLogHandler serves persisted routing decision records
type DecisionLogHandler struct {
	repo   repositories.DecisionLogRepository
	logger *zap.Logger
}

// NewDecisionLogHandler creates a new DecisionLogHandler
func NewDecisionLogHandler(repo repositories.DecisionLogRepository, logger *zap.Logger) *DecisionLogHandler {
	return &DecisionLogHandler{
		repo:   repo,
		logger: logger,
	}
}

// HandleListDecisions handles GET /api/v1/decisions
// Filters by user_id, or by a start/end window when no user is given
func (h *DecisionLogHandler) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paginationParams(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		entries, err := h.repo.GetByUserID(r.Context(), userID, limit, offset)
		if err != nil {
			HandleServiceError(w, services.WrapInternal("failed to query decision logs", err), h.logger)
			return
		}
		_ = utils.WriteOK(w, entries)
		return
	}

	start, end, ok, err := timeRangeParams(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if !ok {
		_ = utils.WriteBadRequest(w, "user_id or a start/end range is required", nil)
		return
	}

	entries, err := h.repo.GetByDateRange(r.Context(), start, end, limit, offset)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to query decision logs", err), h.logger)
		return
	}
	_ = utils.WriteOK(w, entries)
}

// HandleGetByCorrelation handles GET /api/v1/decisions/{correlationID}
func (h *DecisionLogHandler) HandleGetByCorrelation(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	if correlationID == "" {
		_ = utils.WriteBadRequest(w, "correlation ID is required", nil)
		return
	}

	entries, err := h.repo.GetByCorrelationID(r.Context(), correlationID)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to query decision logs", err), h.logger)
		return
	}
	if len(entries) == 0 {
		notFound := services.NewDomainError(services.ErrorTypeNotFound, "no decisions recorded for correlation ID", nil).
			WithDetail("correlation_id", correlationID)
		HandleServiceError(w, notFound, h.logger)
		return
	}

	_ = utils.WriteOK(w, entries)
}

// HandleDecisionMetrics handles GET /api/v1/decisions/metrics
// Defaults to the last 24 hours when no range is given
func (h *DecisionLogHandler) HandleDecisionMetrics(w http.ResponseWriter, r *http.Request) {
	start, end, ok, err := timeRangeParams(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if !ok {
		end = time.Now().UTC()
		start = end.Add(-24 * time.Hour)
	}

	metrics, err := h.repo.GetMetrics(r.Context(), start, end)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to compute decision metrics", err), h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
		"metrics": metrics,
	})
}

func invalidParam(name, value string) error {
	return services.NewDomainError(services.ErrorTypeValidation, "invalid "+name+" parameter", nil).
		WithDetail(name, value)
}

// paginationParams reads limit/offset query parameters with defaults
func paginationParams(r *http.Request) (limit, offset int, err error) {
	limit = defaultDecisionPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, invalidParam("limit", raw)
		}
		if limit > maxDecisionPageSize {
			limit = maxDecisionPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, invalidParam("offset", raw)
		}
	}
	return limit, offset, nil
}

// timeRangeParams reads an RFC3339 start/end pair. ok is false when the
// range is absent; a half-open pair is an error.
func timeRangeParams(r *http.Request) (start, end time.Time, ok bool, err error) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" && rawEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, false, invalidParam("range", "start and end must be given together")
	}

	start, err = time.Parse(time.RFC3339, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, false, invalidParam("start", rawStart)
	}
	end, err = time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false, invalidParam("end", rawEnd)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false, invalidParam("range", "end precedes start")
	}
	return start, end, true, nil
}
