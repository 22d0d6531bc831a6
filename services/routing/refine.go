package routing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
)

// RefinementInput carries the baseline assignment and collaborator outputs
// into a refinement pass
type RefinementInput struct {
	Provider      string
	Model         string
	FallbackChain []string
	TaskType      string
	KHRPStep      string
	Analysis      *models.TaskAnalysis
	Cognition     *models.CognitionResult
	Requirements  map[string]any
}

// RefinementResult is the refined selection
type RefinementResult struct {
	Provider   string
	Model      string
	Reasoning  string
	Confidence float64
}

// RefinementEngine narrows a baseline (provider, model) assignment through
// an ordered sequence of policy stages. Each stage may rewrite the current
// selection and appends a clause to the reasoning trace; later stages see
// the rewritten selection. Health checks are issued sequentially per
// candidate because the policy commits to the first healthy candidate in a
// fixed preference order.
type RefinementEngine struct {
	analyzer  TaskAnalyzer
	health    HealthChecker
	estimator *CostEstimator
	models    func(provider string) string // default model lookup
	tables    RefinementTables
	logger    *zap.Logger
}

// NewRefinementEngine creates a RefinementEngine
func NewRefinementEngine(
	analyzer TaskAnalyzer,
	health HealthChecker,
	estimator *CostEstimator,
	defaultModel func(provider string) string,
	tables RefinementTables,
	logger *zap.Logger,
) *RefinementEngine {
	return &RefinementEngine{
		analyzer:  analyzer,
		health:    health,
		estimator: estimator,
		models:    defaultModel,
		tables:    tables,
		logger:    logger,
	}
}

// refinement accumulates state across stages
type refinement struct {
	provider      string
	model         string
	reasons       []string
	confidence    float64
	confidenceSet bool
}

func (r *refinement) switchTo(provider, model, reason string) {
	r.provider = provider
	r.model = model
	r.reasons = append(r.reasons, reason)
}

func (r *refinement) note(reason string) {
	r.reasons = append(r.reasons, reason)
}

func (r *refinement) override(confidence float64) {
	r.confidence = clamp01(confidence)
	r.confidenceSet = true
}

func (r *refinement) result() RefinementResult {
	return RefinementResult{
		Provider:   r.provider,
		Model:      r.model,
		Reasoning:  strings.Join(r.reasons, "; "),
		Confidence: clamp01(r.confidence),
	}
}

// Refine runs the full stage sequence and returns the refined selection.
// It never fails: "no healthy provider" and "over budget" are modeled
// outcomes, not errors.
func (e *RefinementEngine) Refine(ctx context.Context, in *RefinementInput) RefinementResult {
	ref := &refinement{provider: in.Provider, model: in.Model}

	e.applyCapabilityGate(ctx, in, ref)
	e.applyStepPreference(ctx, in, ref)
	e.applyUrgency(ctx, in, ref)
	e.applyToolAffinity(ctx, in, ref)
	e.applyTaskSteering(ctx, in, ref)

	// The health gate is terminal: an unhealthy provider invalidates every
	// task-specific optimization already chosen
	if done := e.applyHealthGate(ctx, in, ref); done {
		return ref.result()
	}

	e.applyLateOptimization(ctx, in, ref)
	e.applyCostAdmission(ctx, in, ref)
	e.finalizeConfidence(in, ref)

	return ref.result()
}

// applyCapabilityGate switches away from a provider that cannot serve the
// required capabilities, taking the first capable healthy chain entry
func (e *RefinementEngine) applyCapabilityGate(ctx context.Context, in *RefinementInput, ref *refinement) {
	caps := in.Analysis.RequiredCapabilities
	if len(caps) == 0 || e.analyzer.ProviderSupports(ref.provider, caps) {
		return
	}

	for _, candidate := range in.FallbackChain {
		if candidate == ref.provider {
			continue
		}
		if !e.analyzer.ProviderSupports(candidate, caps) {
			continue
		}
		if !e.health.IsHealthy(ctx, candidate) {
			continue
		}
		ref.switchTo(candidate, e.models(candidate),
			fmt.Sprintf("%s lacks required capabilities %v, switched to %s", in.Provider, caps, candidate))
		return
	}

	ref.note(fmt.Sprintf("%s lacks required capabilities %v but no capable healthy alternative found", ref.provider, caps))
}

// applyStepPreference prefers the deliberate-reasoning model list for
// designated pipeline steps
func (e *RefinementEngine) applyStepPreference(ctx context.Context, in *RefinementInput, ref *refinement) {
	if !contains(e.tables.DeliberateSteps, in.KHRPStep) {
		return
	}

	for _, pref := range e.tables.StepPreferences {
		if !e.health.IsHealthy(ctx, pref.Provider) {
			continue
		}
		if pref.Provider == ref.provider && pref.Model == ref.model {
			return
		}
		ref.switchTo(pref.Provider, pref.Model,
			fmt.Sprintf("step %s prefers %s/%s", in.KHRPStep, pref.Provider, pref.Model))
		return
	}
}

// applyUrgency escalates the selection under elevated or high urgency
func (e *RefinementEngine) applyUrgency(ctx context.Context, in *RefinementInput, ref *refinement) {
	switch in.Cognition.NeedUrgency {
	case models.UrgencyHigh:
		target := e.tables.HighUrgencyTarget
		if ref.provider == target.Provider {
			return
		}
		if e.health.IsHealthy(ctx, target.Provider) {
			ref.switchTo(target.Provider, target.Model,
				fmt.Sprintf("high urgency escalated to %s/%s", target.Provider, target.Model))
		}
	case models.UrgencyElevated:
		if !contains(e.tables.LocalProviders, ref.provider) {
			return
		}
		target := e.tables.ElevatedUrgencyTarget
		if e.health.IsHealthy(ctx, target.Provider) {
			ref.switchTo(target.Provider, target.Model,
				fmt.Sprintf("elevated urgency escalated from %s to %s", in.Provider, target.Provider))
		}
	}
}

// applyToolAffinity steers toward a provider specialized for the tools the
// task needs, using the union of analyzer intents and cognition
// recommendations. A provider that already advertises the affinity keeps
// the selection.
func (e *RefinementEngine) applyToolAffinity(ctx context.Context, in *RefinementInput, ref *refinement) {
	tools := union(in.Analysis.ToolIntents, in.Cognition.RecommendedTools)

	for _, tool := range tools {
		if e.analyzer.ProviderHasToolAffinity(ref.provider, tool) {
			continue
		}
		target, ok := e.tables.ToolTargets[tool]
		if !ok || target.Provider == ref.provider {
			continue
		}
		if !e.health.IsHealthy(ctx, target.Provider) {
			continue
		}
		ref.switchTo(target.Provider, target.Model,
			fmt.Sprintf("task needs %s, steered to %s", tool, target.Provider))
		return
	}
}

// applyTaskSteering handles embedding-only and summarization workloads
func (e *RefinementEngine) applyTaskSteering(ctx context.Context, in *RefinementInput, ref *refinement) {
	caps := in.Analysis.RequiredCapabilities
	if len(caps) == 1 && caps[0] == "embedding" {
		target := e.tables.EmbeddingTarget
		if target.Provider != ref.provider && e.health.IsHealthy(ctx, target.Provider) {
			ref.switchTo(target.Provider, target.Model,
				fmt.Sprintf("embedding-only workload steered to %s", target.Provider))
		}
		return
	}

	if in.TaskType == "summarization" {
		target := e.tables.SummarizationTarget
		if target.Provider != ref.provider && e.health.IsHealthy(ctx, target.Provider) {
			ref.switchTo(target.Provider, target.Model,
				fmt.Sprintf("summarization steered to low-latency %s", target.Provider))
		}
	}
}

// applyHealthGate verifies the current selection is healthy; on failure it
// walks the fallback chain in order and commits to the first healthy entry
// with reduced confidence, or enters degraded mode when none qualifies.
// Returns true when the refinement is terminal.
func (e *RefinementEngine) applyHealthGate(ctx context.Context, in *RefinementInput, ref *refinement) bool {
	if e.health.IsHealthy(ctx, ref.provider) {
		return false
	}

	unhealthy := ref.provider
	for _, candidate := range in.FallbackChain {
		if candidate == unhealthy {
			continue
		}
		if !e.health.IsHealthy(ctx, candidate) {
			continue
		}
		ref.switchTo(candidate, e.models(candidate),
			fmt.Sprintf("%s is unhealthy, fell back to %s", unhealthy, candidate))
		ref.override(e.tables.FallbackConfidence)
		return true
	}

	degraded := e.tables.DegradedDefault
	ref.switchTo(degraded.Provider, degraded.Model,
		fmt.Sprintf("%s is unhealthy and no fallback provider is healthy, degraded mode default %s/%s",
			unhealthy, degraded.Provider, degraded.Model))
	ref.override(e.tables.DegradedConfidence)

	e.logger.Warn("refinement entered degraded mode",
		zap.String("unhealthy_provider", unhealthy),
		zap.Strings("fallback_chain", in.FallbackChain))
	return true
}

// applyLateOptimization redirects narrow task/provider combinations to a
// specialist with boosted confidence
func (e *RefinementEngine) applyLateOptimization(ctx context.Context, in *RefinementInput, ref *refinement) {
	if in.TaskType != "code" || !contains(e.tables.GenericProviders, ref.provider) {
		return
	}

	target := e.tables.CodeTarget
	if !e.health.IsHealthy(ctx, target.Provider) {
		return
	}

	ref.switchTo(target.Provider, target.Model,
		fmt.Sprintf("code task redirected from %s to specialist %s/%s", in.Provider, target.Provider, target.Model))
	ref.override(e.tables.CodeBoostConfidence)
}

// applyCostAdmission enforces the per-call budget when one is set
func (e *RefinementEngine) applyCostAdmission(ctx context.Context, in *RefinementInput, ref *refinement) {
	budget, ok := MaxCostPerCall(in.Requirements)
	if !ok {
		return
	}

	cost := e.estimator.Estimate(ref.provider, in.Requirements)
	if cost <= budget {
		return
	}

	for _, candidate := range in.FallbackChain {
		if candidate == ref.provider {
			continue
		}
		if !e.health.IsHealthy(ctx, candidate) {
			continue
		}
		if e.estimator.Estimate(candidate, in.Requirements) > budget {
			continue
		}
		ref.switchTo(candidate, e.models(candidate),
			fmt.Sprintf("estimated cost %.5f over budget %.5f, switched to cheaper %s", cost, budget, candidate))
		return
	}

	ref.note(fmt.Sprintf("estimated cost %.5f exceeds budget %.5f and no cheaper healthy alternative exists", cost, budget))
	if !ref.confidenceSet || ref.confidence > e.tables.BudgetCapConfidence {
		ref.override(e.tables.BudgetCapConfidence)
	}
}

// finalizeConfidence computes the baseline confidence when no earlier
// stage set an override, and closes the reasoning trace
func (e *RefinementEngine) finalizeConfidence(in *RefinementInput, ref *refinement) {
	if !ref.confidenceSet {
		blended := (in.Cognition.Confidence + in.Analysis.Confidence) / 2
		ref.confidence = 0.82 + 0.13*clamp01(blended)
		if ref.confidence > 0.95 {
			ref.confidence = 0.95
		}
	}

	task := in.TaskType
	if task == "" {
		task = defaultTaskType
	}
	ref.note(fmt.Sprintf("profile assignment for %s", task))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
