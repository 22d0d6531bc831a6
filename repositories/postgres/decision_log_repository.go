package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
	"github.com/modelplane/router/repositories"
)

// DecisionLogRepository implements repositories.DecisionLogRepository
type DecisionLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDecisionLogRepository creates a new decision log repository
func NewDecisionLogRepository(db *DB, logger *zap.Logger) repositories.DecisionLogRepository {
	return &DecisionLogRepository{
		db:     db,
		logger: logger,
	}
}

const decisionLogColumns = `id, correlation_id, user_id, task_type, khrp_step,
       provider, model, confidence, reasoning, elapsed_ms, success, error_message, timestamp`

// Insert inserts a new decision log entry
func (r *DecisionLogRepository) Insert(ctx context.Context, entry *models.DecisionLog) error {
	query := `
		INSERT INTO decision_logs (` + decisionLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var errMsg sql.NullString
	if entry.ErrorMessage != "" {
		errMsg = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.CorrelationID,
		entry.UserID,
		entry.TaskType,
		entry.KHRPStep,
		entry.Provider,
		entry.Model,
		entry.Confidence,
		entry.Reasoning,
		entry.ElapsedMs,
		entry.Success,
		errMsg,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision log: %w", err)
	}

	r.logger.Debug("decision log inserted",
		zap.String("id", entry.ID),
		zap.String("correlation_id", entry.CorrelationID))
	return nil
}

// GetByCorrelationID retrieves decision logs by correlation ID
func (r *DecisionLogRepository) GetByCorrelationID(ctx context.Context, correlationID string) ([]*models.DecisionLog, error) {
	query := `
		SELECT ` + decisionLogColumns + `
		FROM decision_logs
		WHERE correlation_id = $1
		ORDER BY timestamp DESC
	`

	return r.queryDecisionLogs(ctx, query, correlationID)
}

// GetByUserID retrieves decision logs for a user with pagination
func (r *DecisionLogRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.DecisionLog, error) {
	query := `
		SELECT ` + decisionLogColumns + `
		FROM decision_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryDecisionLogs(ctx, query, userID, limit, offset)
}

// GetByDateRange retrieves decision logs within a date range
func (r *DecisionLogRepository) GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.DecisionLog, error) {
	query := `
		SELECT ` + decisionLogColumns + `
		FROM decision_logs
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp DESC
		LIMIT $3 OFFSET $4
	`

	return r.queryDecisionLogs(ctx, query, start, end, limit, offset)
}

// GetMetrics retrieves aggregate decision metrics over a date range
func (r *DecisionLogRepository) GetMetrics(ctx context.Context, start, end time.Time) (*repositories.DecisionMetrics, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT success),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(elapsed_ms), 0)
		FROM decision_logs
		WHERE timestamp >= $1 AND timestamp <= $2
	`

	metrics := &repositories.DecisionMetrics{}
	err := r.db.QueryRowContext(ctx, query, start, end).Scan(
		&metrics.TotalDecisions,
		&metrics.FailedDecisions,
		&metrics.AvgConfidence,
		&metrics.AvgElapsedMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get decision metrics: %w", err)
	}

	return metrics, nil
}

func (r *DecisionLogRepository) queryDecisionLogs(ctx context.Context, query string, args ...interface{}) ([]*models.DecisionLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.DecisionLog
	for rows.Next() {
		entry := &models.DecisionLog{}
		var errMsg sql.NullString
		err := rows.Scan(
			&entry.ID,
			&entry.CorrelationID,
			&entry.UserID,
			&entry.TaskType,
			&entry.KHRPStep,
			&entry.Provider,
			&entry.Model,
			&entry.Confidence,
			&entry.Reasoning,
			&entry.ElapsedMs,
			&entry.Success,
			&errMsg,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision log: %w", err)
		}
		entry.ErrorMessage = errMsg.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision log rows: %w", err)
	}

	return entries, nil
}
