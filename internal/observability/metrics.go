package observability

import "sync"

// Collector is an in-memory metrics collector for routing counters.
// It implements the routing engine's Metrics interface and exposes a
// snapshot for the stats endpoint.
type Collector struct {
	mu sync.Mutex

	decisions          map[string]int64 // "status:task_type"
	cacheEvents        map[string]int64
	providerSelections map[string]int64
	confidenceBuckets  map[string]int64
	confidenceSum      float64
	confidenceCount    int64
}

// NewCollector creates an empty metrics collector
func NewCollector() *Collector {
	return &Collector{
		decisions:          make(map[string]int64),
		cacheEvents:        make(map[string]int64),
		providerSelections: make(map[string]int64),
		confidenceBuckets:  make(map[string]int64),
	}
}

// IncDecision counts a routing decision by status and task type
func (c *Collector) IncDecision(status, taskType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions[status+":"+taskType]++
}

// IncCacheEvent counts a decision cache event (hit, miss, store)
func (c *Collector) IncCacheEvent(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheEvents[event]++
}

// IncProviderSelection counts a provider being chosen
func (c *Collector) IncProviderSelection(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providerSelections[provider]++
}

// ObserveConfidence records a decision confidence value
func (c *Collector) ObserveConfidence(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confidenceSum += v
	c.confidenceCount++
	c.confidenceBuckets[bucketLabel(v)]++
}

func bucketLabel(v float64) string {
	switch {
	case v >= 0.9:
		return "0.90-1.00"
	case v >= 0.8:
		return "0.80-0.89"
	case v >= 0.6:
		return "0.60-0.79"
	default:
		return "0.00-0.59"
	}
}

// Snapshot is a point-in-time copy of the collected metrics
type Snapshot struct {
	Decisions          map[string]int64 `json:"decisions"`
	CacheEvents        map[string]int64 `json:"cache_events"`
	ProviderSelections map[string]int64 `json:"provider_selections"`
	ConfidenceBuckets  map[string]int64 `json:"confidence_buckets"`
	AvgConfidence      float64          `json:"avg_confidence"`
}

// Snapshot returns a copy of the current counters
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Decisions:          copyCounts(c.decisions),
		CacheEvents:        copyCounts(c.cacheEvents),
		ProviderSelections: copyCounts(c.providerSelections),
		ConfidenceBuckets:  copyCounts(c.confidenceBuckets),
	}
	if c.confidenceCount > 0 {
		snap.AvgConfidence = c.confidenceSum / float64(c.confidenceCount)
	}
	return snap
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
