package providers

import "context"

// Capability names understood by the task analyzer and refinement engine
const (
	CapabilityText      = "text"
	CapabilityCode      = "code"
	CapabilityReasoning = "reasoning"
	CapabilityEmbedding = "embedding"
	CapabilitySummary   = "summarization"
	CapabilityVision    = "vision"
)

// Tool affinity names used for tool-affordance steering
const (
	AffinityWebSearch     = "web_search"
	AffinityCodeExecution = "code_execution"
)

// Descriptor describes a backend provider's routing-relevant properties.
// The numeric cost figures are heuristics carried as replaceable
// configuration, not a billing contract.
type Descriptor struct {
	// Name is the provider identifier (e.g., "openai", "llamacpp")
	Name string

	// DefaultModel is used when no assignment names a specific model
	DefaultModel string

	// Models lists the models this provider serves
	Models []string

	// Capabilities this provider supports
	Capabilities []string

	// ToolAffinities names tools this provider is specialized for
	ToolAffinities []string

	// CostPer1KTokens is the estimated cost per 1000 tokens in USD
	CostPer1KTokens float64

	// Local is true for providers running on the same host (no network egress)
	Local bool
}

// SupportsCapability reports whether the descriptor lists the capability
func (d *Descriptor) SupportsCapability(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// SupportsAll reports whether the descriptor lists every capability given
func (d *Descriptor) SupportsAll(capabilities []string) bool {
	for _, c := range capabilities {
		if !d.SupportsCapability(c) {
			return false
		}
	}
	return true
}

// HasToolAffinity reports whether the descriptor lists the tool affinity
func (d *Descriptor) HasToolAffinity(tool string) bool {
	for _, t := range d.ToolAffinities {
		if t == tool {
			return true
		}
	}
	return false
}

// AvailabilityProbe checks whether a provider's backend is reachable.
// Implementations may hit a health endpoint or check a local socket.
type AvailabilityProbe interface {
	// IsAvailable returns true when the named provider can take traffic.
	// An error means the probe itself could not determine availability.
	IsAvailable(ctx context.Context, provider string) (bool, error)
}

// StaticProbe is an AvailabilityProbe backed by a fixed table, used in
// tests and in deployments without live health polling.
type StaticProbe struct {
	Available map[string]bool
}

// IsAvailable reports the configured availability; unknown providers are unavailable
func (p *StaticProbe) IsAvailable(_ context.Context, provider string) (bool, error) {
	return p.Available[provider], nil
}

// DefaultDescriptors returns the built-in provider table. Cost figures
// follow the upstream provider price sheets at the time of writing.
func DefaultDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Name:            "llamacpp",
			DefaultModel:    "llama-3.1-8b-instruct",
			Models:          []string{"llama-3.1-8b-instruct", "phi-3-mini"},
			Capabilities:    []string{CapabilityText, CapabilitySummary, CapabilityEmbedding},
			CostPer1KTokens: 0.0,
			Local:           true,
		},
		{
			Name:            "openai",
			DefaultModel:    "gpt-4o-mini",
			Models:          []string{"gpt-4o", "gpt-4o-mini", "text-embedding-3-small"},
			Capabilities:    []string{CapabilityText, CapabilityCode, CapabilityReasoning, CapabilityEmbedding, CapabilitySummary, CapabilityVision},
			ToolAffinities:  []string{AffinityWebSearch},
			CostPer1KTokens: 0.0015,
		},
		{
			Name:            "anthropic",
			DefaultModel:    "claude-sonnet-4-20250514",
			Models:          []string{"claude-sonnet-4-20250514", "claude-haiku-3-5"},
			Capabilities:    []string{CapabilityText, CapabilityCode, CapabilityReasoning, CapabilitySummary, CapabilityVision},
			ToolAffinities:  []string{AffinityCodeExecution},
			CostPer1KTokens: 0.003,
		},
		{
			Name:            "deepseek",
			DefaultModel:    "deepseek-chat",
			Models:          []string{"deepseek-chat", "deepseek-coder", "deepseek-reasoner"},
			Capabilities:    []string{CapabilityText, CapabilityCode, CapabilityReasoning, CapabilitySummary},
			ToolAffinities:  []string{AffinityCodeExecution},
			CostPer1KTokens: 0.0014,
		},
		{
			Name:            "gemini",
			DefaultModel:    "gemini-2.0-flash",
			Models:          []string{"gemini-2.0-flash", "gemini-1.5-pro"},
			Capabilities:    []string{CapabilityText, CapabilityCode, CapabilityReasoning, CapabilityEmbedding, CapabilitySummary, CapabilityVision},
			ToolAffinities:  []string{AffinityWebSearch},
			CostPer1KTokens: 0.00075,
		},
		{
			Name:            "huggingface",
			DefaultModel:    "mistral-7b-instruct",
			Models:          []string{"mistral-7b-instruct", "all-minilm-l6-v2"},
			Capabilities:    []string{CapabilityText, CapabilityEmbedding},
			CostPer1KTokens: 0.0005,
		},
	}
}
