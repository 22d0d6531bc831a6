package repositories

import (
	"context"
	"time"

	"github.com/modelplane/router/models"
)

// DecisionLogRepository handles persisted routing decision records
type DecisionLogRepository interface {
	// Insert inserts a new decision log entry
	Insert(ctx context.Context, entry *models.DecisionLog) error

	// GetByCorrelationID retrieves decision logs by correlation ID
	GetByCorrelationID(ctx context.Context, correlationID string) ([]*models.DecisionLog, error)

	// GetByUserID retrieves decision logs for a user with pagination,
	// newest first
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.DecisionLog, error)

	// GetByDateRange retrieves decision logs within a date range
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.DecisionLog, error)

	// GetMetrics retrieves aggregate decision metrics over a date range
	GetMetrics(ctx context.Context, start, end time.Time) (*DecisionMetrics, error)
}

// DecisionMetrics represents aggregated routing decision metrics
type DecisionMetrics struct {
	TotalDecisions  int     `json:"total_decisions"`
	FailedDecisions int     `json:"failed_decisions"`
	AvgConfidence   float64 `json:"avg_confidence"`
	AvgElapsedMs    float64 `json:"avg_elapsed_ms"`
}
