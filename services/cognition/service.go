// Package cognition evaluates a routing request against the user's
// broader situation: how urgently they need a dependable answer, which
// tools would help, and a short narrative explaining the read. Its
// output feeds urgency escalation in the refinement engine.
package cognition

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
)

// Service is a heuristic CognitiveReasoner
type Service struct {
	logger *zap.Logger
}

// NewService creates a cognition service
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Evaluate grades the request's urgency and recommends tools. It never
// fails; a request it cannot read gets normal urgency at low confidence.
func (s *Service) Evaluate(_ context.Context, req *models.RouteRequest, analysis *models.TaskAnalysis, _ *models.Profile) (*models.CognitionResult, error) {
	urgency, urgencyConf := gradeUrgency(req, analysis)

	result := &models.CognitionResult{
		PrimaryGoal:      primaryGoal(analysis.TaskType),
		NeedUrgency:      urgency,
		RecommendedTools: analysis.ToolIntents,
		Narrative:        narrative(analysis, urgency),
		Confidence:       urgencyConf,
	}

	s.logger.Debug("cognitive evaluation",
		zap.String("user_id", req.UserID),
		zap.String("need_urgency", string(urgency)),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func gradeUrgency(req *models.RouteRequest, analysis *models.TaskAnalysis) (models.NeedUrgency, float64) {
	lowered := strings.ToLower(req.Query)

	switch {
	case analysis.UserNeedState == "urgent":
		return models.UrgencyHigh, 0.9
	case analysis.UserNeedState == "pressed":
		return models.UrgencyElevated, 0.8
	case req.KHRPStep == "reasoning_core" && analysis.TaskType == "reasoning":
		// deliberate reasoning steps deserve the stronger model even
		// without urgent phrasing
		return models.UrgencyElevated, 0.75
	case strings.Contains(lowered, "please") && strings.Contains(lowered, "!"):
		return models.UrgencyElevated, 0.6
	default:
		return models.UrgencyNormal, 0.7
	}
}

func primaryGoal(taskType string) string {
	switch taskType {
	case "code":
		return "produce working code"
	case "reasoning":
		return "reach a sound conclusion"
	case "summarization":
		return "compress without losing meaning"
	case "translation":
		return "preserve meaning across languages"
	case "creative":
		return "generate original content"
	case "embedding":
		return "produce a faithful vector representation"
	default:
		return "answer the question"
	}
}

func narrative(analysis *models.TaskAnalysis, urgency models.NeedUrgency) string {
	base := fmt.Sprintf("%s task, %s urgency", analysis.TaskType, urgency)
	if len(analysis.ToolIntents) > 0 {
		return base + ", tools " + strings.Join(analysis.ToolIntents, "+")
	}
	return base
}
