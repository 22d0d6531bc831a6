package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.IncDecision("success", "code")
	c.IncDecision("success", "code")
	c.IncDecision("error", "chat")
	c.IncCacheEvent("hit")
	c.IncCacheEvent("miss")
	c.IncCacheEvent("miss")
	c.IncProviderSelection("openai")
	c.IncProviderSelection("deepseek")
	c.IncProviderSelection("openai")

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Decisions["success:code"])
	assert.Equal(t, int64(1), snap.Decisions["error:chat"])
	assert.Equal(t, int64(1), snap.CacheEvents["hit"])
	assert.Equal(t, int64(2), snap.CacheEvents["miss"])
	assert.Equal(t, int64(2), snap.ProviderSelections["openai"])
	assert.Equal(t, int64(1), snap.ProviderSelections["deepseek"])
}

func TestCollectorConfidence(t *testing.T) {
	c := NewCollector()

	c.ObserveConfidence(0.95)
	c.ObserveConfidence(0.9)
	c.ObserveConfidence(0.82)
	c.ObserveConfidence(0.7)
	c.ObserveConfidence(0.3)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.ConfidenceBuckets["0.90-1.00"])
	assert.Equal(t, int64(1), snap.ConfidenceBuckets["0.80-0.89"])
	assert.Equal(t, int64(1), snap.ConfidenceBuckets["0.60-0.79"])
	assert.Equal(t, int64(1), snap.ConfidenceBuckets["0.00-0.59"])
	assert.InDelta(t, (0.95+0.9+0.82+0.7+0.3)/5, snap.AvgConfidence, 1e-9)
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()

	assert.Empty(t, snap.Decisions)
	assert.Empty(t, snap.CacheEvents)
	assert.Zero(t, snap.AvgConfidence)
}

func TestCollectorSnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.IncCacheEvent("hit")

	snap := c.Snapshot()
	snap.CacheEvents["hit"] = 99

	require.Equal(t, int64(1), c.Snapshot().CacheEvents["hit"])
}

func TestCollectorConcurrentWrites(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncDecision("success", "chat")
				c.ObserveConfidence(0.9)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(800), snap.Decisions["success:chat"])
	assert.Equal(t, int64(800), snap.ConfidenceBuckets["0.90-1.00"])
	assert.InDelta(t, 0.9, snap.AvgConfidence, 1e-9)
}
