// Package profile resolves user routing profiles: per-user model
// assignments keyed by task type and pipeline step, plus the ordered
// provider fallback chain consulted when the preferred provider is
// unsuitable.
package profile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/modelplane/router/models"
)

// defaultFallbackChain orders providers local-first, then remote by
// reliability, with huggingface as last resort
var defaultFallbackChain = []string{"llamacpp", "openai", "deepseek", "gemini", "huggingface"}

// defaultAssignments is the baseline assignment table applied to users
// without a stored profile. The catch-all entry must stay last.
var defaultAssignments = []models.ModelAssignment{
	{TaskType: "code", Provider: "openai", Model: "gpt-4o-mini"},
	{TaskType: "reasoning", Provider: "openai", Model: "gpt-4o"},
	{TaskType: "embedding", Provider: "huggingface", Model: "all-minilm-l6-v2"},
	{TaskType: "summarization", Provider: "llamacpp", Model: "llama-3.1-8b-instruct"},
	{Provider: "openai", Model: "gpt-4o-mini"},
}

// Service resolves profiles from an in-memory store, falling back to the
// default profile for unknown users
type Service struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	logger   *zap.Logger
}

// NewService creates a profile service with an empty store
func NewService(logger *zap.Logger) *Service {
	return &Service{
		profiles: make(map[string]*models.Profile),
		logger:   logger,
	}
}

// Put stores or replaces a user's profile
func (s *Service) Put(profile *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
}

// ResolveProfile returns the stored profile for userID, or the default
// profile when none exists. It never fails for unknown users.
func (s *Service) ResolveProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()

	if ok {
		return p, nil
	}

	s.logger.Debug("no stored profile, using defaults", zap.String("user_id", userID))
	return &models.Profile{
		UserID:        userID,
		Name:          "default",
		Assignments:   defaultAssignments,
		FallbackChain: defaultFallbackChain,
	}, nil
}

// AssignModel returns the profile's baseline (provider, model) for the
// task type and step
func (s *Service) AssignModel(profile *models.Profile, taskType, khrpStep string) (string, string, bool) {
	return profile.Assignment(taskType, khrpStep)
}

// DefaultFallbackChain returns the profile's ordered fallback chain, or
// the built-in chain when the profile has none
func (s *Service) DefaultFallbackChain(profile *models.Profile) []string {
	if len(profile.FallbackChain) > 0 {
		return profile.FallbackChain
	}
	return defaultFallbackChain
}
