package providers

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry holds provider descriptors and answers capability, pricing, and
// availability questions for the routing engine.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	probe       AvailabilityProbe
}

// NewRegistry creates a registry with the given availability probe.
// A nil probe means every registered provider is considered available.
func NewRegistry(probe AvailabilityProbe) *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		probe:       probe,
	}
}

// NewDefaultRegistry creates a registry preloaded with the built-in
// provider table.
func NewDefaultRegistry(probe AvailabilityProbe) *Registry {
	r := NewRegistry(probe)
	for _, d := range DefaultDescriptors() {
		_ = r.Register(d)
	}
	return r
}

// Register adds a provider descriptor
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.Name == "" {
		return errors.New("descriptor must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.descriptors[d.Name] = d
	return nil
}

// Get retrieves a descriptor by provider name
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.descriptors[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return d, nil
}

// List returns all registered provider names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	return names
}

// DefaultModel returns the default model for a provider, or the provider
// name itself when the provider is unknown, so callers always get a
// non-empty model identifier.
func (r *Registry) DefaultModel(provider string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.descriptors[provider]; ok && d.DefaultModel != "" {
		return d.DefaultModel
	}
	return provider
}

// Supports reports whether the provider supports every capability listed.
// Unknown providers support nothing.
func (r *Registry) Supports(provider string, capabilities []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[provider]
	if !ok {
		return false
	}
	return d.SupportsAll(capabilities)
}

// HasToolAffinity reports whether the provider lists the tool affinity.
// Unknown providers have none.
func (r *Registry) HasToolAffinity(provider, tool string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[provider]
	if !ok {
		return false
	}
	return d.HasToolAffinity(tool)
}

// CostPer1KTokens returns the cost estimate for a provider. Unknown
// providers get a conservative default so cost admission still works.
func (r *Registry) CostPer1KTokens(provider string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.descriptors[provider]; ok {
		return d.CostPer1KTokens
	}
	return 0.002
}

// IsAvailable probes the provider's backend
func (r *Registry) IsAvailable(ctx context.Context, provider string) (bool, error) {
	r.mu.RLock()
	_, known := r.descriptors[provider]
	probe := r.probe
	r.mu.RUnlock()

	if !known {
		return false, nil
	}
	if probe == nil {
		return true, nil
	}
	return probe.IsAvailable(ctx, provider)
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
