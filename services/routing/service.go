package routing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
	"github.com/modelplane/router/services"
)

// Decision metric statuses
const (
	statusSuccess = "success"
	statusError   = "error"
)

// Config holds RouterService tuning knobs
type Config struct {
	// CacheTTL is the fixed lifetime of cached decisions
	CacheTTL time.Duration

	// CacheMaxSize bounds the decision cache
	CacheMaxSize int

	// CacheConfidenceThreshold is the minimum confidence for a decision to
	// be cached
	CacheConfidenceThreshold float64

	// DynamicSteps names KHRP steps whose decisions are never cached
	// because their inputs shift per call
	DynamicSteps []string
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		CacheTTL:                 5 * time.Minute,
		CacheMaxSize:             10000,
		CacheConfidenceThreshold: 0.8,
		DynamicSteps:             []string{"evidence_gathering", "tool_execution"},
	}
}

// RouterService is the public entry point of the routing decision engine.
// It owns the decision cache and deduplicator explicitly; nothing here is
// process-global.
type RouterService struct {
	config    Config
	profiles  ProfileResolver
	analyzer  TaskAnalyzer
	reasoner  CognitiveReasoner
	health    HealthChecker
	engine    *RefinementEngine
	cache     *DecisionCache
	dedup     *Deduplicator
	decisions DecisionLogger
	metrics   Metrics
	logger    *zap.Logger

	dynamicSteps map[string]struct{}
}

// NewRouterService wires the routing engine together
func NewRouterService(
	config Config,
	profiles ProfileResolver,
	analyzer TaskAnalyzer,
	reasoner CognitiveReasoner,
	health HealthChecker,
	engine *RefinementEngine,
	decisions DecisionLogger,
	metrics Metrics,
	logger *zap.Logger,
) *RouterService {
	dynamic := make(map[string]struct{}, len(config.DynamicSteps))
	for _, step := range config.DynamicSteps {
		dynamic[step] = struct{}{}
	}

	return &RouterService{
		config:       config,
		profiles:     profiles,
		analyzer:     analyzer,
		reasoner:     reasoner,
		health:       health,
		engine:       engine,
		cache:        NewDecisionCache(config.CacheMaxSize, config.CacheTTL),
		dedup:        NewDeduplicator(),
		decisions:    decisions,
		metrics:      metrics,
		logger:       logger,
		dynamicSteps: dynamic,
	}
}

// SelectRoute selects a (provider, model) execution target for the request.
// Collaborator failures propagate to the caller after logging and metrics;
// "no healthy provider" and "over budget" are modeled decisions, not errors.
func (s *RouterService) SelectRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteDecision, error) {
	start := time.Now()
	key := BuildCacheKey(req)
	correlationID := NewCorrelationID()

	s.decisions.LogStart(correlationID, req.UserID, "select_route", map[string]string{
		"task_type": req.TaskType,
		"khrp_step": req.KHRPStep,
	})

	if cached := s.cache.Get(key); cached != nil {
		s.metrics.IncCacheEvent(CacheEventHit)
		s.logger.Debug("route cache hit",
			zap.String("correlation_id", correlationID),
			zap.String("cache_key", key))
		return cached, nil
	}
	s.metrics.IncCacheEvent(CacheEventMiss)

	decision, err := s.computeDecision(ctx, key, req, start)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.IncDecision(statusError, req.TaskType)
		s.logDecision(correlationID, req, nil, elapsed, err)
		return nil, err
	}

	s.metrics.IncDecision(statusSuccess, req.TaskType)
	s.metrics.IncProviderSelection(decision.Provider)
	s.metrics.ObserveConfidence(decision.Confidence)
	s.logDecision(correlationID, req, decision, elapsed, nil)

	return decision, nil
}

// computeDecision resolves collaborators and runs the refinement engine
// through the deduplicator, so concurrent misses on one key compute once.
// The decision is fully assembled and cached inside the shared computation;
// after it escapes to waiters it is read-only.
func (s *RouterService) computeDecision(ctx context.Context, key string, req *models.RouteRequest, start time.Time) (*models.RouteDecision, error) {
	profile, err := s.profiles.ResolveProfile(ctx, req.UserID)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeExternal, "resolve profile", err)
	}

	analysis, err := s.analyzer.Analyze(ctx, req.Query, req.UserID, req.Context)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeExternal, "analyze task", err)
	}

	taskType := req.TaskType
	if taskType == "" {
		taskType = analysis.TaskType
	}

	cognition, err := s.reasoner.Evaluate(ctx, req, analysis, profile)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeExternal, "cognitive evaluation", err)
	}

	provider, model, ok := s.profiles.AssignModel(profile, taskType, req.KHRPStep)
	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeNotFound,
			fmt.Sprintf("no model assignment for user %s task %s", req.UserID, taskType), nil)
	}
	chain := s.profiles.DefaultFallbackChain(profile)

	return s.dedup.Do(ctx, key, func() (*models.RouteDecision, error) {
		// The shared computation must not die with one caller's deadline
		refined := s.engine.Refine(context.WithoutCancel(ctx), &RefinementInput{
			Provider:      provider,
			Model:         model,
			FallbackChain: chain,
			TaskType:      taskType,
			KHRPStep:      req.KHRPStep,
			Analysis:      analysis,
			Cognition:     cognition,
			Requirements:  req.Requirements,
		})

		decision := &models.RouteDecision{
			Provider:      refined.Provider,
			Model:         refined.Model,
			Reasoning:     refined.Reasoning,
			Confidence:    refined.Confidence,
			FallbackChain: chain,
			Metadata: map[string]any{
				"task_type":     taskType,
				"khrp_step":     req.KHRPStep,
				"analysis":      analysis.UserNeedState,
				"primary_goal":  cognition.PrimaryGoal,
				"health_source": s.health.Source(),
			},
		}
		decision.Metadata["confidence_bucket"] = decision.ConfidenceBucket()
		decision.Metadata["execution_time_ms"] = time.Since(start).Milliseconds()

		if s.cacheable(decision, req.KHRPStep) {
			s.cache.Set(key, req.UserID, decision)
			s.metrics.IncCacheEvent(CacheEventStore)
		}
		return decision, nil
	})
}

// cacheable applies the caching-eligibility policy
func (s *RouterService) cacheable(decision *models.RouteDecision, step string) bool {
	if decision.Confidence < s.config.CacheConfidenceThreshold {
		return false
	}
	_, dynamic := s.dynamicSteps[step]
	return !dynamic
}

// logDecision emits the fire-and-forget decision log
func (s *RouterService) logDecision(correlationID string, req *models.RouteRequest, decision *models.RouteDecision, elapsed time.Duration, err error) {
	entry := &models.DecisionLog{
		CorrelationID: correlationID,
		UserID:        req.UserID,
		TaskType:      req.TaskType,
		KHRPStep:      req.KHRPStep,
		ElapsedMs:     elapsed.Milliseconds(),
		Success:       err == nil,
		Timestamp:     time.Now(),
	}
	if decision != nil {
		entry.Provider = decision.Provider
		entry.Model = decision.Model
		entry.Confidence = decision.Confidence
		entry.Reasoning = decision.Reasoning
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	s.decisions.LogDecision(entry)
}

// InvalidateUserCache removes every cached decision owned by userID
func (s *RouterService) InvalidateUserCache(userID string) int {
	removed := s.cache.InvalidateUser(userID)
	s.logger.Info("invalidated user cache",
		zap.String("user_id", userID),
		zap.Int("removed", removed))
	return removed
}

// InvalidateProviderCache removes every cached decision that chose provider
func (s *RouterService) InvalidateProviderCache(provider string) int {
	removed := s.cache.InvalidateProvider(provider)
	s.logger.Info("invalidated provider cache",
		zap.String("provider", provider),
		zap.Int("removed", removed))
	return removed
}

// CacheStats returns decision cache counters
func (s *RouterService) CacheStats() CacheStats {
	return s.cache.Stats()
}

// DedupStats returns deduplicator counters
func (s *RouterService) DedupStats() DedupStats {
	return s.dedup.Stats()
}

// StartCacheCleanup runs the cache's expiry sweeper until stopCh closes
func (s *RouterService) StartCacheCleanup(interval time.Duration, stopCh <-chan struct{}) {
	go s.cache.StartCleanupWorker(interval, stopCh)
}
