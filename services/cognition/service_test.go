package cognition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modelplane/router/models"
)

func evaluate(t *testing.T, req *models.RouteRequest, analysis *models.TaskAnalysis) *models.CognitionResult {
	t.Helper()
	result, err := NewService(zap.NewNop()).Evaluate(context.Background(), req, analysis, nil)
	require.NoError(t, err)
	return result
}

func TestEvaluateUrgency(t *testing.T) {
	t.Run("urgent need state grades high", func(t *testing.T) {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "production is down"},
			&models.TaskAnalysis{TaskType: "chat", UserNeedState: "urgent"})
		assert.Equal(t, models.UrgencyHigh, result.NeedUrgency)
		assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	})

	t.Run("pressed need state grades elevated", func(t *testing.T) {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "deadline today"},
			&models.TaskAnalysis{TaskType: "chat", UserNeedState: "pressed"})
		assert.Equal(t, models.UrgencyElevated, result.NeedUrgency)
		assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	})

	t.Run("deliberate reasoning step is elevated without urgent phrasing", func(t *testing.T) {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "compare these approaches", KHRPStep: "reasoning_core"},
			&models.TaskAnalysis{TaskType: "reasoning", UserNeedState: "calm"})
		assert.Equal(t, models.UrgencyElevated, result.NeedUrgency)
		assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	})

	t.Run("pleading phrasing is elevated at low confidence", func(t *testing.T) {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "please help me with this!"},
			&models.TaskAnalysis{TaskType: "chat", UserNeedState: "calm"})
		assert.Equal(t, models.UrgencyElevated, result.NeedUrgency)
		assert.InDelta(t, 0.6, result.Confidence, 1e-9)
	})

	t.Run("default is normal", func(t *testing.T) {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "tell me about owls"},
			&models.TaskAnalysis{TaskType: "chat", UserNeedState: "calm"})
		assert.Equal(t, models.UrgencyNormal, result.NeedUrgency)
		assert.InDelta(t, 0.7, result.Confidence, 1e-9)
	})
}

func TestEvaluatePrimaryGoal(t *testing.T) {
	cases := map[string]string{
		"code":          "produce working code",
		"reasoning":     "reach a sound conclusion",
		"summarization": "compress without losing meaning",
		"translation":   "preserve meaning across languages",
		"creative":      "generate original content",
		"embedding":     "produce a faithful vector representation",
		"chat":          "answer the question",
	}
	for taskType, goal := range cases {
		result := evaluate(t,
			&models.RouteRequest{UserID: "u1", Query: "q"},
			&models.TaskAnalysis{TaskType: taskType})
		assert.Equal(t, goal, result.PrimaryGoal, taskType)
	}
}

func TestEvaluateToolsAndNarrative(t *testing.T) {
	result := evaluate(t,
		&models.RouteRequest{UserID: "u1", Query: "look up the latest news"},
		&models.TaskAnalysis{TaskType: "chat", ToolIntents: []string{"web_search"}, UserNeedState: "calm"})

	assert.Equal(t, []string{"web_search"}, result.RecommendedTools)
	assert.Equal(t, "chat task, normal urgency, tools web_search", result.Narrative)
}
