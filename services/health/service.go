// Package health tracks provider availability. It polls the registry's
// availability probe on an interval, caches the results, and invalidates
// routing decisions for any provider whose health flips.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modelplane/router/services/providers"
	"github.com/modelplane/router/services/routing"
)

// Invalidator removes cached decisions naming a provider. Satisfied by
// the router service.
type Invalidator interface {
	InvalidateProviderCache(provider string) int
}

// Service is a HealthChecker backed by an AvailabilityProbe. Between
// refreshes it answers from the last polled snapshot; when the probe
// fails it degrades to the fallback source and reports everything
// unhealthy until a poll succeeds again.
type Service struct {
	registry *providers.Registry
	probe    providers.AvailabilityProbe
	logger   *zap.Logger

	mu       sync.RWMutex
	healthy  map[string]bool
	source   string
	interval time.Duration

	invalidator Invalidator
}

// NewService creates a health service. Call Refresh or StartRefresher
// before routing traffic; until the first poll the source is "fallback".
func NewService(registry *providers.Registry, probe providers.AvailabilityProbe, interval time.Duration, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		probe:    probe,
		logger:   logger,
		healthy:  make(map[string]bool),
		source:   routing.HealthSourceFallback,
		interval: interval,
	}
}

// SetInvalidator wires the cache invalidation hook. Set once during
// startup, before StartRefresher.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// IsHealthy reports the last polled health for the provider. Unknown
// providers are unhealthy.
func (s *Service) IsHealthy(_ context.Context, provider string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy[provider]
}

// Source reports whether answers come from a live poll or the fallback state
func (s *Service) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Refresh polls every registered provider once. Providers whose health
// flipped have their cached decisions invalidated.
func (s *Service) Refresh(ctx context.Context) {
	next := make(map[string]bool)
	probeFailed := false

	for _, name := range s.registry.List() {
		ok, err := s.probe.IsAvailable(ctx, name)
		if err != nil {
			s.logger.Warn("availability probe failed",
				zap.String("provider", name),
				zap.Error(err),
			)
			probeFailed = true
			break
		}
		next[name] = ok
	}

	s.mu.Lock()
	prev := s.healthy
	if probeFailed {
		s.healthy = make(map[string]bool)
		s.source = routing.HealthSourceFallback
	} else {
		s.healthy = next
		s.source = routing.HealthSourceLive
	}
	current := s.healthy
	s.mu.Unlock()

	if s.invalidator == nil {
		return
	}
	for _, name := range s.registry.List() {
		if prev[name] != current[name] {
			removed := s.invalidator.InvalidateProviderCache(name)
			s.logger.Info("provider health changed",
				zap.String("provider", name),
				zap.Bool("healthy", current[name]),
				zap.Int("decisions_invalidated", removed),
			)
		}
	}
}

// StartRefresher polls on the configured interval until ctx is done.
// The first poll happens immediately.
func (s *Service) StartRefresher(ctx context.Context) {
	s.Refresh(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}
