package routing

import (
	"context"

	"github.com/modelplane/router/models"
)

// ProfileResolver resolves user profiles and baseline model assignments
type ProfileResolver interface {
	// ResolveProfile returns the profile for a user, falling back to a
	// default profile when the user is unknown
	ResolveProfile(ctx context.Context, userID string) (*models.Profile, error)

	// AssignModel returns the profile's (provider, model) assignment for a
	// task type and pipeline step; ok is false when nothing matches
	AssignModel(profile *models.Profile, taskType, khrpStep string) (provider, model string, ok bool)

	// DefaultFallbackChain returns the ordered provider fallback chain
	DefaultFallbackChain(profile *models.Profile) []string
}

// TaskAnalyzer classifies queries and answers capability questions
type TaskAnalyzer interface {
	// Analyze classifies the query into a task analysis
	Analyze(ctx context.Context, query, userID string, reqContext map[string]any) (*models.TaskAnalysis, error)

	// ProviderSupports reports whether a provider supports the capabilities
	ProviderSupports(provider string, capabilities []string) bool

	// ProviderHasToolAffinity reports whether a provider is specialized
	// for the tool
	ProviderHasToolAffinity(provider, tool string) bool
}

// CognitiveReasoner evaluates the request against the user's broader goals
type CognitiveReasoner interface {
	Evaluate(ctx context.Context, req *models.RouteRequest, analysis *models.TaskAnalysis, profile *models.Profile) (*models.CognitionResult, error)
}

// Health source tags surfaced in decision metadata
const (
	HealthSourceLive     = "live"
	HealthSourceFallback = "fallback"
)

// HealthChecker answers provider health questions. When the live health
// signal is unavailable the checker reports Source() == "fallback" and
// treats every provider as unhealthy rather than optimistically healthy.
type HealthChecker interface {
	IsHealthy(ctx context.Context, provider string) bool
	Source() string
}

// DecisionLogger records routing activity. Implementations must never
// block or fail the routing path.
type DecisionLogger interface {
	LogStart(correlationID, userID, operation string, tags map[string]string)
	LogDecision(entry *models.DecisionLog)
}

// Cache event names emitted to Metrics
const (
	CacheEventHit   = "hit"
	CacheEventMiss  = "miss"
	CacheEventStore = "store"
)

// Metrics collects routing counters. All methods are best-effort.
type Metrics interface {
	IncDecision(status, taskType string)
	IncCacheEvent(event string)
	IncProviderSelection(provider string)
	ObserveConfidence(v float64)
}

// NopMetrics discards all metrics
type NopMetrics struct{}

func (NopMetrics) IncDecision(string, string)  {}
func (NopMetrics) IncCacheEvent(string)        {}
func (NopMetrics) IncProviderSelection(string) {}
func (NopMetrics) ObserveConfidence(float64)   {}

// NopDecisionLogger discards all decision logs
type NopDecisionLogger struct{}

func (NopDecisionLogger) LogStart(string, string, string, map[string]string) {}
func (NopDecisionLogger) LogDecision(*models.DecisionLog)                    {}
