package routing

import (
	"container/list"
	"sync"
	"time"

	"github.com/modelplane/router/models"
)

// entryOwner identifies the index sets a cache entry belongs to
type entryOwner struct {
	provider string
	userID   string
}

// cacheEntry is a single cached decision with a fixed TTL
type cacheEntry struct {
	key        string
	decision   *models.RouteDecision
	owner      entryOwner
	insertedAt time.Time
	element    *list.Element // LRU position
}

func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// DecisionCache is an in-memory LRU cache with TTL for routing decisions.
// Beyond the primary key map it maintains secondary indexes by user and by
// chosen provider so invalidation can be targeted. Thread-safe.
type DecisionCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration

	userIndex     map[string]map[string]struct{} // userID -> key set
	providerIndex map[string]map[string]struct{} // provider -> key set

	hits   uint64
	misses uint64
}

// NewDecisionCache creates a DecisionCache with the given capacity and TTL
func NewDecisionCache(maxSize int, ttl time.Duration) *DecisionCache {
	return &DecisionCache{
		entries:       make(map[string]*cacheEntry),
		lruList:       list.New(),
		maxSize:       maxSize,
		ttl:           ttl,
		userIndex:     make(map[string]map[string]struct{}),
		providerIndex: make(map[string]map[string]struct{}),
	}
}

// Get returns the cached decision for key, or nil on miss or expiry
func (c *DecisionCache) Get(key string) *models.RouteDecision {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(key)
		}
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	return entry.decision
}

// Set stores a decision under key, owned by (provider, userID) for index
// maintenance. An existing entry is overwritten and re-indexed.
func (c *DecisionCache) Set(key, userID string, decision *models.RouteDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner := entryOwner{provider: decision.Provider, userID: userID}

	if entry, exists := c.entries[key]; exists {
		// Re-index in case the chosen provider changed
		c.unindex(entry)
		entry.decision = decision
		entry.owner = owner
		entry.insertedAt = time.Now()
		c.index(key, owner)
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		key:        key,
		decision:   decision,
		owner:      owner,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(key)
	c.entries[key] = entry
	c.index(key, owner)
}

// Delete removes a single entry and its index memberships
func (c *DecisionCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeEntry(key)
}

// InvalidateUser removes every entry owned by userID and returns the count
func (c *DecisionCache) InvalidateUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.userIndex[userID]
	removed := 0
	for key := range keys {
		c.removeEntry(key)
		removed++
	}
	return removed
}

// InvalidateProvider removes every entry whose chosen provider is provider.
// Called when a provider's health flips, so stale selections are not served.
func (c *DecisionCache) InvalidateProvider(provider string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.providerIndex[provider]
	removed := 0
	for key := range keys {
		c.removeEntry(key)
		removed++
	}
	return removed
}

// CacheStats summarizes cache state for observability
type CacheStats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Users     int     `json:"indexed_users"`
	Providers int     `json:"indexed_providers"`
}

// Stats returns current counters
func (c *DecisionCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:      c.lruList.Len(),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   rate,
		Users:     len(c.userIndex),
		Providers: len(c.providerIndex),
	}
}

// CleanupExpired removes all expired entries and returns how many
func (c *DecisionCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := make([]string, 0)
	for key, entry := range c.entries {
		if entry.isExpired(c.ttl) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeEntry(key)
	}
	return len(expired)
}

// StartCleanupWorker runs periodic expiry sweeps until stopCh closes
func (c *DecisionCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// index adds key to both owner index sets (lock held)
func (c *DecisionCache) index(key string, owner entryOwner) {
	if c.userIndex[owner.userID] == nil {
		c.userIndex[owner.userID] = make(map[string]struct{})
	}
	c.userIndex[owner.userID][key] = struct{}{}

	if c.providerIndex[owner.provider] == nil {
		c.providerIndex[owner.provider] = make(map[string]struct{})
	}
	c.providerIndex[owner.provider][key] = struct{}{}
}

// unindex removes the entry's key from both index sets, pruning sets that
// become empty to bound memory (lock held)
func (c *DecisionCache) unindex(entry *cacheEntry) {
	if set, ok := c.userIndex[entry.owner.userID]; ok {
		delete(set, entry.key)
		if len(set) == 0 {
			delete(c.userIndex, entry.owner.userID)
		}
	}
	if set, ok := c.providerIndex[entry.owner.provider]; ok {
		delete(set, entry.key)
		if len(set) == 0 {
			delete(c.providerIndex, entry.owner.provider)
		}
	}
}

// removeEntry removes an entry and all its index memberships (lock held)
func (c *DecisionCache) removeEntry(key string) {
	entry, exists := c.entries[key]
	if !exists {
		return
	}
	c.unindex(entry)
	c.lruList.Remove(entry.element)
	delete(c.entries, key)
}

// evictLRU evicts the least recently used entry (lock held)
func (c *DecisionCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	c.removeEntry(back.Value.(string))
}
