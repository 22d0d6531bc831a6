package routing

// The tables in this file are routing heuristics carried as replaceable
// configuration. Deployments with different provider economics should
// override them at construction, not fork the engine.

// ProviderModel is a (provider, model) preference pair
type ProviderModel struct {
	Provider string
	Model    string
}

// RefinementTables holds the tunable constants the refinement stages
// consult. Zero-value fields fall back to DefaultRefinementTables.
type RefinementTables struct {
	// DeliberateSteps names KHRP steps that warrant deliberate-reasoning
	// model preferences
	DeliberateSteps []string

	// StepPreferences is the ordered preference list for deliberate steps;
	// the first healthy entry wins
	StepPreferences []ProviderModel

	// HighUrgencyTarget is the high-reliability escalation target
	HighUrgencyTarget ProviderModel

	// ElevatedUrgencyTarget is the mid-tier escalation target used when a
	// local/cheapest provider is selected under elevated urgency
	ElevatedUrgencyTarget ProviderModel

	// LocalProviders names providers considered cheapest/local for the
	// elevated-urgency escalation rule
	LocalProviders []string

	// ToolTargets maps a tool affinity to the provider specialized for it
	ToolTargets map[string]ProviderModel

	// EmbeddingTarget serves embedding-only workloads
	EmbeddingTarget ProviderModel

	// SummarizationTarget serves summarization tasks (low-latency local)
	SummarizationTarget ProviderModel

	// CodeTarget is the late-optimization redirect for code-generation
	// tasks landing on a generic provider
	CodeTarget ProviderModel

	// GenericProviders names providers the code-task late optimization
	// redirects away from
	GenericProviders []string

	// DegradedDefault is returned when no provider in the chain is healthy
	DegradedDefault ProviderModel

	// DegradedConfidence is the fixed confidence of degraded-mode decisions
	DegradedConfidence float64

	// FallbackConfidence is the reduced confidence after a health-gate
	// fallback-chain switch
	FallbackConfidence float64

	// BudgetCapConfidence caps confidence when no in-budget alternative exists
	BudgetCapConfidence float64

	// CodeBoostConfidence is the boosted confidence after the code redirect
	CodeBoostConfidence float64
}

// DefaultRefinementTables returns the built-in heuristic tables
func DefaultRefinementTables() RefinementTables {
	return RefinementTables{
		DeliberateSteps: []string{"reasoning_core", "deliberation"},
		StepPreferences: []ProviderModel{
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
			{Provider: "openai", Model: "gpt-4o"},
			{Provider: "deepseek", Model: "deepseek-reasoner"},
		},
		HighUrgencyTarget:     ProviderModel{Provider: "openai", Model: "gpt-4o"},
		ElevatedUrgencyTarget: ProviderModel{Provider: "deepseek", Model: "deepseek-chat"},
		LocalProviders:        []string{"llamacpp", "huggingface"},
		ToolTargets: map[string]ProviderModel{
			"web_search":     {Provider: "gemini", Model: "gemini-2.0-flash"},
			"code_execution": {Provider: "deepseek", Model: "deepseek-coder"},
		},
		EmbeddingTarget:     ProviderModel{Provider: "huggingface", Model: "all-minilm-l6-v2"},
		SummarizationTarget: ProviderModel{Provider: "llamacpp", Model: "llama-3.1-8b-instruct"},
		CodeTarget:          ProviderModel{Provider: "deepseek", Model: "deepseek-coder"},
		GenericProviders:    []string{"openai", "gemini"},
		DegradedDefault:     ProviderModel{Provider: "llamacpp", Model: "llama-3.1-8b-instruct"},
		DegradedConfidence:  0.30,
		FallbackConfidence:  0.70,
		BudgetCapConfidence: 0.75,
		CodeBoostConfidence: 0.92,
	}
}

// Requirement keys recognized in RouteRequest.Requirements
const (
	RequirementMaxCostPerCall = "max_cost_per_call"
	RequirementExpectedTokens = "expected_tokens"
)

// defaultExpectedTokens is assumed when the caller gives no token estimate
const defaultExpectedTokens = 1000.0

// CostEstimator estimates per-call cost using a per-provider linear
// per-1000-token model
type CostEstimator struct {
	costPer1K func(provider string) float64
}

// NewCostEstimator builds an estimator over a provider cost lookup
func NewCostEstimator(costPer1K func(provider string) float64) *CostEstimator {
	return &CostEstimator{costPer1K: costPer1K}
}

// Estimate returns the expected cost of one call to provider given the
// request requirements
func (e *CostEstimator) Estimate(provider string, requirements map[string]any) float64 {
	tokens := numericRequirement(requirements, RequirementExpectedTokens, defaultExpectedTokens)
	return e.costPer1K(provider) * tokens / 1000.0
}

// MaxCostPerCall extracts the budget from requirements; ok is false when
// no budget is set
func MaxCostPerCall(requirements map[string]any) (float64, bool) {
	if requirements == nil {
		return 0, false
	}
	if _, present := requirements[RequirementMaxCostPerCall]; !present {
		return 0, false
	}
	return numericRequirement(requirements, RequirementMaxCostPerCall, 0), true
}

// numericRequirement reads a numeric requirement that may arrive as
// float64, int, or json.Number-style string input
func numericRequirement(requirements map[string]any, key string, fallback float64) float64 {
	v, ok := requirements[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}
