package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modelplane/router/models"
)

var decisionLogRows = []string{
	"id", "correlation_id", "user_id", "task_type", "khrp_step",
	"provider", "model", "confidence", "reasoning", "elapsed_ms",
	"success", "error_message", "timestamp",
}

func newMockRepo(t *testing.T) (*DecisionLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	repo := NewDecisionLogRepository(db, zap.NewNop()).(*DecisionLogRepository)
	return repo, mock
}

func sampleEntry() *models.DecisionLog {
	return &models.DecisionLog{
		ID:            "6b9f0a4e-2c31-4a8f-9f5b-0d3e1c7a9b21",
		CorrelationID: "corr-1",
		UserID:        "user-1",
		TaskType:      "code",
		KHRPStep:      "reasoning_core",
		Provider:      "deepseek",
		Model:         "deepseek-coder",
		Confidence:    0.92,
		Reasoning:     "code task redirected to specialist",
		ElapsedMs:     12,
		Success:       true,
		Timestamp:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDecisionLogRepositoryInsert(t *testing.T) {
	t.Run("success without error message", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		entry := sampleEntry()

		mock.ExpectExec("INSERT INTO decision_logs").
			WithArgs(
				entry.ID, entry.CorrelationID, entry.UserID, entry.TaskType,
				entry.KHRPStep, entry.Provider, entry.Model, entry.Confidence,
				entry.Reasoning, entry.ElapsedMs, entry.Success,
				sql.NullString{}, entry.Timestamp,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Insert(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error message stored as non-null", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		entry := sampleEntry()
		entry.Success = false
		entry.ErrorMessage = "no provider available"

		mock.ExpectExec("INSERT INTO decision_logs").
			WithArgs(
				entry.ID, entry.CorrelationID, entry.UserID, entry.TaskType,
				entry.KHRPStep, entry.Provider, entry.Model, entry.Confidence,
				entry.Reasoning, entry.ElapsedMs, entry.Success,
				sql.NullString{String: "no provider available", Valid: true}, entry.Timestamp,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Insert(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec failure is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("INSERT INTO decision_logs").
			WillReturnError(errors.New("connection reset"))

		err := repo.Insert(context.Background(), sampleEntry())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert decision log")
	})
}

func TestDecisionLogRepositoryGetByCorrelationID(t *testing.T) {
	repo, mock := newMockRepo(t)
	entry := sampleEntry()

	mock.ExpectQuery("SELECT (.+) FROM decision_logs").
		WithArgs("corr-1").
		WillReturnRows(sqlmock.NewRows(decisionLogRows).AddRow(
			entry.ID, entry.CorrelationID, entry.UserID, entry.TaskType,
			entry.KHRPStep, entry.Provider, entry.Model, entry.Confidence,
			entry.Reasoning, entry.ElapsedMs, entry.Success,
			sql.NullString{}, entry.Timestamp,
		))

	entries, err := repo.GetByCorrelationID(context.Background(), "corr-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "deepseek", entries[0].Provider)
	assert.Empty(t, entries[0].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionLogRepositoryGetByUserID(t *testing.T) {
	t.Run("returns paginated rows with error message", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		entry := sampleEntry()

		mock.ExpectQuery("SELECT (.+) FROM decision_logs").
			WithArgs("user-1", 10, 20).
			WillReturnRows(sqlmock.NewRows(decisionLogRows).AddRow(
				entry.ID, entry.CorrelationID, entry.UserID, entry.TaskType,
				entry.KHRPStep, entry.Provider, entry.Model, entry.Confidence,
				entry.Reasoning, entry.ElapsedMs, false,
				sql.NullString{String: "probe timeout", Valid: true}, entry.Timestamp,
			))

		entries, err := repo.GetByUserID(context.Background(), "user-1", 10, 20)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Success)
		assert.Equal(t, "probe timeout", entries[0].ErrorMessage)
	})

	t.Run("no rows yields empty slice", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM decision_logs").
			WithArgs("user-2", 10, 0).
			WillReturnRows(sqlmock.NewRows(decisionLogRows))

		entries, err := repo.GetByUserID(context.Background(), "user-2", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDecisionLogRepositoryGetByDateRange(t *testing.T) {
	repo, mock := newMockRepo(t)
	entry := sampleEntry()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM decision_logs").
		WithArgs(start, end, 50, 0).
		WillReturnRows(sqlmock.NewRows(decisionLogRows).AddRow(
			entry.ID, entry.CorrelationID, entry.UserID, entry.TaskType,
			entry.KHRPStep, entry.Provider, entry.Model, entry.Confidence,
			entry.Reasoning, entry.ElapsedMs, entry.Success,
			sql.NullString{}, entry.Timestamp,
		))

	entries, err := repo.GetByDateRange(context.Background(), start, end, 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.Timestamp, entries[0].Timestamp)
}

func TestDecisionLogRepositoryGetMetrics(t *testing.T) {
	t.Run("aggregates returned", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT COUNT").
			WithArgs(start, end).
			WillReturnRows(sqlmock.NewRows([]string{"count", "failed", "avg_conf", "avg_ms"}).
				AddRow(120, 6, 0.87, 14.5))

		metrics, err := repo.GetMetrics(context.Background(), start, end)
		require.NoError(t, err)
		assert.Equal(t, 120, metrics.TotalDecisions)
		assert.Equal(t, 6, metrics.FailedDecisions)
		assert.InDelta(t, 0.87, metrics.AvgConfidence, 1e-9)
		assert.InDelta(t, 14.5, metrics.AvgElapsedMs, 1e-9)
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT COUNT").
			WillReturnError(errors.New("relation does not exist"))

		_, err := repo.GetMetrics(context.Background(), time.Now().Add(-time.Hour), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get decision metrics")
	})
}
