// Package ratelimit enforces per-user request rates on the routing API
// with an in-memory sliding window. Routing decisions are cheap, so the
// limiter protects downstream providers rather than the engine itself.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed           bool
	RequestsRemaining int
	ResetAt           time.Time
}

// Service is a per-key sliding window rate limiter
type Service struct {
	limit  int
	window time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewService creates a rate limiter allowing limit requests per window
func NewService(limit int, window time.Duration, logger *zap.Logger) *Service {
	return &Service{
		limit:   limit,
		window:  window,
		logger:  logger,
		windows: make(map[string][]time.Time),
	}
}

// Allow records a request for the key and reports whether it is within
// the limit
func (s *Service) Allow(key string) *Result {
	now := time.Now()
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	timestamps := s.windows[key]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= s.limit {
		s.windows[key] = kept
		s.logger.Debug("rate limit exceeded",
			zap.String("key", key),
			zap.Int("limit", s.limit))
		return &Result{
			Allowed:           false,
			RequestsRemaining: 0,
			ResetAt:           kept[0].Add(s.window),
		}
	}

	kept = append(kept, now)
	s.windows[key] = kept
	return &Result{
		Allowed:           true,
		RequestsRemaining: s.limit - len(kept),
		ResetAt:           now.Add(s.window),
	}
}

// Cleanup drops keys whose windows are fully expired. Call periodically
// to bound memory on long-running processes.
func (s *Service) Cleanup() int {
	cutoff := time.Now().Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, timestamps := range s.windows {
		live := false
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}
