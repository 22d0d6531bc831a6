// Package audit records routing activity asynchronously. Decision logs
// are queued on a buffered channel and drained by a worker pool, so the
// routing hot path never blocks on the database.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modelplane/router/models"
	"github.com/modelplane/router/repositories"
)

// Service implements routing.DecisionLogger on top of a
// DecisionLogRepository
type Service struct {
	repo        repositories.DecisionLogRepository
	logger      *zap.Logger
	entryChan   chan *models.DecisionLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	dropped     int64
	mu          sync.Mutex
}

// Config holds configuration for the audit service
type Config struct {
	BufferSize  int
	WorkerCount int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewService creates an audit service. Call Start before routing traffic.
func NewService(repo repositories.DecisionLogRepository, logger *zap.Logger, config Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:        repo,
		logger:      logger,
		entryChan:   make(chan *models.DecisionLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service, waiting for pending entries
// to be persisted up to the timeout
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_entries", len(s.entryChan)))

	close(s.entryChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogStart records the beginning of a routing operation. It only logs;
// the persisted record is written by LogDecision when the operation ends.
func (s *Service) LogStart(correlationID, userID, operation string, tags map[string]string) {
	fields := []zap.Field{
		zap.String("correlation_id", correlationID),
		zap.String("user_id", userID),
		zap.String("operation", operation),
	}
	for k, v := range tags {
		fields = append(fields, zap.String(k, v))
	}
	s.logger.Info("routing operation started", fields...)
}

// LogDecision queues a decision record for persistence. Non-blocking:
// when the buffer is full the entry is dropped with a warning.
func (s *Service) LogDecision(entry *models.DecisionLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}

	select {
	case s.entryChan <- entry:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.logger.Warn("decision log buffer full, dropping entry",
			zap.String("correlation_id", entry.CorrelationID),
			zap.String("user_id", entry.UserID))
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for entry := range s.entryChan {
		if err := s.persist(entry); err != nil {
			s.logger.Error("failed to persist decision log",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("correlation_id", entry.CorrelationID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *Service) persist(entry *models.DecisionLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert decision log: %w", err)
	}
	return nil
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize     int   `json:"buffer_size"`
	PendingEntries int   `json:"pending_entries"`
	WorkerCount    int   `json:"worker_count"`
	DroppedEntries int64 `json:"dropped_entries"`
	Started        bool  `json:"started"`
}

// GetStats returns statistics about the audit service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:     s.bufferSize,
		PendingEntries: len(s.entryChan),
		WorkerCount:    s.workerCount,
		DroppedEntries: s.dropped,
		Started:        s.started,
	}
}
