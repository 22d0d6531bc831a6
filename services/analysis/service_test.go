package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modelplane/router/services/providers"
)

func newAnalyzer() *Service {
	return NewService(providers.NewDefaultRegistry(nil), zap.NewNop())
}

func TestAnalyzeClassification(t *testing.T) {
	svc := newAnalyzer()

	cases := []struct {
		name       string
		query      string
		taskType   string
		confidence float64
	}{
		{"code keywords", "Debug this function for me", "code", 0.9},
		{"reasoning keywords", "Explain why the sky is blue", "reasoning", 0.9},
		{"summarization keywords", "Summarize this article", "summarization", 0.9},
		{"translation keywords", "Translate this paragraph in spanish", "translation", 0.9},
		{"creative keywords", "Write a poem about autumn", "creative", 0.9},
		{"embedding keywords", "Build a similarity search over my notes", "embedding", 0.9},
		{"no match defaults to chat", "Hello there, how are you", "chat", 0.6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis, err := svc.Analyze(context.Background(), tc.query, "u1", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.taskType, analysis.TaskType)
			assert.InDelta(t, tc.confidence, analysis.Confidence, 1e-9)
			assert.NotEmpty(t, analysis.RequiredCapabilities)
		})
	}
}

func TestAnalyzeKeywordPrecedence(t *testing.T) {
	svc := newAnalyzer()

	// both "debug" (code) and "why" (reasoning) appear; code wins
	analysis, err := svc.Analyze(context.Background(), "Debug why this fails", "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "code", analysis.TaskType)
}

func TestAnalyzeTaskHint(t *testing.T) {
	svc := newAnalyzer()

	t.Run("known hint overrides keywords", func(t *testing.T) {
		analysis, err := svc.Analyze(context.Background(), "Summarize this", "u1",
			map[string]any{"task_hint": "reasoning"})
		require.NoError(t, err)
		assert.Equal(t, "reasoning", analysis.TaskType)
		assert.InDelta(t, 0.95, analysis.Confidence, 1e-9)
	})

	t.Run("unknown hint is ignored", func(t *testing.T) {
		analysis, err := svc.Analyze(context.Background(), "Summarize this", "u1",
			map[string]any{"task_hint": "divination"})
		require.NoError(t, err)
		assert.Equal(t, "summarization", analysis.TaskType)
	})
}

func TestAnalyzeToolIntents(t *testing.T) {
	svc := newAnalyzer()

	t.Run("web search phrasing", func(t *testing.T) {
		analysis, err := svc.Analyze(context.Background(), "What is the latest news on the merger", "u1", nil)
		require.NoError(t, err)
		assert.Contains(t, analysis.ToolIntents, providers.AffinityWebSearch)
	})

	t.Run("code execution phrasing", func(t *testing.T) {
		analysis, err := svc.Analyze(context.Background(), "Run this and tell me the result", "u1", nil)
		require.NoError(t, err)
		assert.Contains(t, analysis.ToolIntents, providers.AffinityCodeExecution)
	})

	t.Run("plain questions have no intents", func(t *testing.T) {
		analysis, err := svc.Analyze(context.Background(), "Tell me about owls", "u1", nil)
		require.NoError(t, err)
		assert.Empty(t, analysis.ToolIntents)
	})
}

func TestAnalyzeNeedState(t *testing.T) {
	svc := newAnalyzer()

	cases := []struct {
		query string
		state string
	}{
		{"URGENT: production is down", "urgent"},
		{"I need this fixed asap", "urgent"},
		{"I have a deadline today", "pressed"},
		{"I am blocked on this review", "pressed"},
		{"Whenever you get a chance", "calm"},
	}
	for _, tc := range cases {
		t.Run(tc.state+" "+tc.query, func(t *testing.T) {
			analysis, err := svc.Analyze(context.Background(), tc.query, "u1", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.state, analysis.UserNeedState)
		})
	}
}

func TestProviderSupports(t *testing.T) {
	svc := newAnalyzer()

	assert.True(t, svc.ProviderSupports("openai", []string{providers.CapabilityText, providers.CapabilityCode}))
	assert.False(t, svc.ProviderSupports("llamacpp", []string{providers.CapabilityCode}))
	assert.False(t, svc.ProviderSupports("nonexistent", []string{providers.CapabilityText}))
}

func TestProviderHasToolAffinity(t *testing.T) {
	svc := newAnalyzer()

	assert.True(t, svc.ProviderHasToolAffinity("openai", providers.AffinityWebSearch))
	assert.True(t, svc.ProviderHasToolAffinity("deepseek", providers.AffinityCodeExecution))
	assert.False(t, svc.ProviderHasToolAffinity("llamacpp", providers.AffinityWebSearch))
	assert.False(t, svc.ProviderHasToolAffinity("nonexistent", providers.AffinityWebSearch))
}
