// Package analysis classifies incoming queries: task type, required
// capabilities, tool intents, and a coarse user-need state. The
// classifier is keyword-driven; it answers in microseconds and never
// calls out of process.
package analysis

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
	"github.com/modelplane/router/services/providers"
)

// taskKeywords orders matter: earlier entries win on overlap, so code
// beats reasoning for "debug this logic error".
var taskKeywords = []struct {
	taskType string
	words    []string
}{
	{"code", []string{"code", "function", "debug", "refactor", "compile", "script", "bug", "implement", "stack trace"}},
	{"reasoning", []string{"why", "explain", "analyze", "compare", "reason", "derive", "prove", "trade-off"}},
	{"summarization", []string{"summarize", "summary", "tldr", "tl;dr", "condense", "shorten"}},
	{"translation", []string{"translate", "translation", "in spanish", "in french", "in german", "in japanese"}},
	{"creative", []string{"story", "poem", "creative", "brainstorm", "slogan", "lyrics"}},
	{"embedding", []string{"embed", "embedding", "vector", "similarity search", "semantic search"}},
}

// capabilitiesByTask maps a task type to the capabilities a provider
// must advertise to serve it
var capabilitiesByTask = map[string][]string{
	"code":          {providers.CapabilityText, providers.CapabilityCode},
	"reasoning":     {providers.CapabilityText, providers.CapabilityReasoning},
	"summarization": {providers.CapabilityText, providers.CapabilitySummary},
	"translation":   {providers.CapabilityText},
	"creative":      {providers.CapabilityText},
	"embedding":     {providers.CapabilityEmbedding},
	"chat":          {providers.CapabilityText},
}

// toolIntentKeywords maps query phrasing to a tool intent
var toolIntentKeywords = []struct {
	intent string
	words  []string
}{
	{providers.AffinityWebSearch, []string{"search the web", "latest news", "current price", "look up", "what happened today", "recent"}},
	{providers.AffinityCodeExecution, []string{"run this", "execute", "run the code", "what does this output", "evaluate this expression"}},
}

// Service is a keyword-based TaskAnalyzer backed by the provider registry
type Service struct {
	registry *providers.Registry
	logger   *zap.Logger
}

// NewService creates a task analysis service
func NewService(registry *providers.Registry, logger *zap.Logger) *Service {
	return &Service{registry: registry, logger: logger}
}

// Analyze classifies the query. A task_hint in the request context
// overrides keyword detection when it names a known task type.
func (s *Service) Analyze(_ context.Context, query, userID string, reqContext map[string]any) (*models.TaskAnalysis, error) {
	lowered := strings.ToLower(query)

	taskType, matched := classify(lowered)
	confidence := 0.9
	if !matched {
		taskType = "chat"
		confidence = 0.6
	}

	if hint, ok := reqContext["task_hint"].(string); ok {
		if _, known := capabilitiesByTask[hint]; known {
			taskType = hint
			confidence = 0.95
		}
	}

	analysis := &models.TaskAnalysis{
		TaskType:             taskType,
		RequiredCapabilities: capabilitiesByTask[taskType],
		Confidence:           confidence,
		ToolIntents:          detectToolIntents(lowered),
		UserNeedState:        needState(lowered),
	}

	s.logger.Debug("query analyzed",
		zap.String("user_id", userID),
		zap.String("task_type", analysis.TaskType),
		zap.Strings("tool_intents", analysis.ToolIntents),
	)
	return analysis, nil
}

// ProviderSupports reports whether the provider advertises every
// capability in the list. Unknown providers support nothing.
func (s *Service) ProviderSupports(provider string, capabilities []string) bool {
	return s.registry.Supports(provider, capabilities)
}

// ProviderHasToolAffinity reports whether the provider is specialized for
// the tool. Unknown providers have no affinities.
func (s *Service) ProviderHasToolAffinity(provider, tool string) bool {
	return s.registry.HasToolAffinity(provider, tool)
}

func classify(lowered string) (string, bool) {
	for _, entry := range taskKeywords {
		for _, w := range entry.words {
			if strings.Contains(lowered, w) {
				return entry.taskType, true
			}
		}
	}
	return "", false
}

func detectToolIntents(lowered string) []string {
	var intents []string
	for _, entry := range toolIntentKeywords {
		for _, w := range entry.words {
			if strings.Contains(lowered, w) {
				intents = append(intents, entry.intent)
				break
			}
		}
	}
	return intents
}

// needState grades apparent urgency from phrasing alone
func needState(lowered string) string {
	switch {
	case containsAny(lowered, []string{"urgent", "asap", "emergency", "immediately", "production is down", "outage"}):
		return "urgent"
	case containsAny(lowered, []string{"deadline", "soon", "quickly", "today", "blocked"}):
		return "pressed"
	default:
		return "calm"
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
