package routing

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/modelplane/router/models"
)

// Deduplicator coalesces concurrent decision computations per cache key.
// At most one computation runs for a key at a time; concurrent callers
// block until it finishes and observe its result. Results are not kept
// after completion; persistence is the DecisionCache's job.
type Deduplicator struct {
	group singleflight.Group

	mu         sync.Mutex
	calls      uint64
	executions uint64
	inFlight   int
}

// NewDeduplicator creates an empty Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Do runs computeFn for key unless one is already in flight, in which case
// the caller waits for the shared result. A caller whose ctx expires while
// waiting receives ctx.Err() but the shared computation keeps running, so
// other waiters are not starved by one caller's deadline.
func (d *Deduplicator) Do(ctx context.Context, key string, computeFn func() (*models.RouteDecision, error)) (*models.RouteDecision, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	ch := d.group.DoChan(key, func() (any, error) {
		d.mu.Lock()
		d.executions++
		d.inFlight++
		d.mu.Unlock()

		defer func() {
			// Forget before waiters observe the result so a later call with
			// the same key starts a fresh computation
			d.group.Forget(key)
			d.mu.Lock()
			d.inFlight--
			d.mu.Unlock()
		}()

		return computeFn()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RouteDecision), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DedupStats summarizes deduplicator activity. Coalesced counts callers
// that shared another caller's computation instead of running their own.
type DedupStats struct {
	Executions uint64 `json:"executions"`
	Coalesced  uint64 `json:"coalesced"`
	InFlight   int    `json:"in_flight"`
}

// Stats returns current counters
func (d *Deduplicator) Stats() DedupStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	coalesced := uint64(0)
	if d.calls > d.executions {
		coalesced = d.calls - d.executions
	}
	return DedupStats{
		Executions: d.executions,
		Coalesced:  coalesced,
		InFlight:   d.inFlight,
	}
}
