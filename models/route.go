package models

import "time"

// RouteRequest is the immutable input to a routing decision.
// Query and UserID are always present; everything else is optional.
type RouteRequest struct {
	// UserID identifies the requesting user for profile resolution and cache scoping
	UserID string `json:"user_id" validate:"required"`

	// TaskType is an optional task classification hint (e.g., "code", "summarization")
	TaskType string `json:"task_type,omitempty"`

	// KHRPStep names the pipeline stage issuing this request
	// (e.g., "reasoning_core", "tool_execution")
	KHRPStep string `json:"khrp_step,omitempty"`

	// Query is the user's task text
	Query string `json:"query" validate:"required"`

	// Context carries opaque caller metadata. Only an allow-listed projection
	// of it ever influences the cache key.
	Context map[string]any `json:"context,omitempty"`

	// Requirements may include "max_cost_per_call" and "expected_tokens"
	Requirements map[string]any `json:"requirements,omitempty"`
}

// RouteDecision is the output of the routing engine
type RouteDecision struct {
	// Provider selected to execute the request
	Provider string `json:"provider"`

	// Model selected on the provider
	Model string `json:"model"`

	// Reasoning is a human-readable trace of the rules applied, in order
	Reasoning string `json:"reasoning"`

	// Confidence in [0, 1]
	Confidence float64 `json:"confidence"`

	// FallbackChain lists candidate providers, most preferred first
	FallbackChain []string `json:"fallback_chain,omitempty"`

	// Metadata captures task type, step, analysis summary, confidence bucket,
	// health source tag, and execution time
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ConfidenceBucket returns a coarse label for the decision's confidence,
// suitable for dashboards and log aggregation (e.g., "0.80-0.89").
func (d *RouteDecision) ConfidenceBucket() string {
	switch {
	case d.Confidence >= 0.9:
		return "0.90-1.00"
	case d.Confidence >= 0.8:
		return "0.80-0.89"
	case d.Confidence >= 0.6:
		return "0.60-0.79"
	default:
		return "0.00-0.59"
	}
}

// TaskAnalysis is the task analyzer collaborator's output
type TaskAnalysis struct {
	TaskType             string   `json:"task_type"`
	RequiredCapabilities []string `json:"required_capabilities"`
	Confidence           float64  `json:"confidence"`
	StepHint             string   `json:"step_hint,omitempty"`
	ToolIntents          []string `json:"tool_intents,omitempty"`
	UserNeedState        string   `json:"user_need_state,omitempty"`
}

// NeedUrgency grades how urgently the user needs a reliable answer
type NeedUrgency string

const (
	UrgencyNormal   NeedUrgency = "normal"
	UrgencyElevated NeedUrgency = "elevated"
	UrgencyHigh     NeedUrgency = "high"
)

// CognitionResult is the cognitive reasoner collaborator's output
type CognitionResult struct {
	PrimaryGoal      string      `json:"primary_goal"`
	NeedUrgency      NeedUrgency `json:"need_urgency"`
	RecommendedTools []string    `json:"recommended_tools,omitempty"`
	Narrative        string      `json:"narrative,omitempty"`
	Confidence       float64     `json:"confidence"`
}

// Profile is the resolved model-assignment profile for a user
type Profile struct {
	UserID        string
	Name          string
	Assignments   []ModelAssignment
	FallbackChain []string
}

// ModelAssignment maps a (task type, step) pair to a provider/model pair.
// Empty TaskType or KHRPStep matches any value.
type ModelAssignment struct {
	TaskType string
	KHRPStep string
	Provider string
	Model    string
}

// Assignment returns the first assignment matching taskType and step,
// or false when the profile has no matching entry.
func (p *Profile) Assignment(taskType, step string) (provider, model string, ok bool) {
	for _, a := range p.Assignments {
		if (a.TaskType == "" || a.TaskType == taskType) && (a.KHRPStep == "" || a.KHRPStep == step) {
			return a.Provider, a.Model, true
		}
	}
	return "", "", false
}

// DecisionLog is a persisted record of one routing decision
type DecisionLog struct {
	ID            string    `json:"id" db:"id"`
	CorrelationID string    `json:"correlation_id" db:"correlation_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	TaskType      string    `json:"task_type" db:"task_type"`
	KHRPStep      string    `json:"khrp_step" db:"khrp_step"`
	Provider      string    `json:"provider" db:"provider"`
	Model         string    `json:"model" db:"model"`
	Confidence    float64   `json:"confidence" db:"confidence"`
	Reasoning     string    `json:"reasoning" db:"reasoning"`
	ElapsedMs     int64     `json:"elapsed_ms" db:"elapsed_ms"`
	Success       bool      `json:"success" db:"success"`
	ErrorMessage  string    `json:"error_message,omitempty" db:"error_message"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the DecisionLog model
func (DecisionLog) TableName() string {
	return "decision_logs"
}
