// ABOUTME: In-memory per-feed unread-count index
// ABOUTME: Derived data, rebuildable from the store at any time, never a source of truth

package account

import "sync"

// UnreadIndex maps feed IDs to cached unread counts. It is maintained
// incrementally from status-change batches and reconciled against the
// store by full rebuilds.
type UnreadIndex struct {
	mu         sync.Mutex
	counts     map[string]int
	total      int
	rebuilding bool
}

// NewUnreadIndex creates an empty index.
func NewUnreadIndex() *UnreadIndex {
	return &UnreadIndex{counts: make(map[string]int)}
}

// Count returns the cached unread count for a feed.
func (x *UnreadIndex) Count(feedID string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.counts[feedID]
}

// Total returns the account-level aggregate unread count.
func (x *UnreadIndex) Total() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.total
}

// Set updates one feed's count and reports whether it changed. While a
// rebuild is in flight the aggregate total is left alone to avoid
// publishing transient incorrect totals.
func (x *UnreadIndex) Set(feedID string, count int) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	old, ok := x.counts[feedID]
	if ok && old == count {
		return false
	}
	x.counts[feedID] = count
	if !x.rebuilding {
		x.total += count - old
	}
	return true
}

// Remove drops a feed from the index (after unsubscribe).
func (x *UnreadIndex) Remove(feedID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.rebuilding {
		x.total -= x.counts[feedID]
	}
	delete(x.counts, feedID)
}

// BeginRebuild suppresses incremental aggregate recomputation until
// FinishRebuild is called.
func (x *UnreadIndex) BeginRebuild() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rebuilding = true
}

// FinishRebuild replaces the index with authoritative store counts and
// resumes incremental maintenance. It returns the feed IDs whose count
// changed relative to the previous index contents.
func (x *UnreadIndex) FinishRebuild(counts map[string]int) []string {
	x.mu.Lock()
	defer x.mu.Unlock()

	var changed []string
	for feedID, n := range counts {
		if x.counts[feedID] != n {
			changed = append(changed, feedID)
		}
	}
	for feedID := range x.counts {
		if _, ok := counts[feedID]; !ok {
			changed = append(changed, feedID)
		}
	}

	x.counts = make(map[string]int, len(counts))
	x.total = 0
	for feedID, n := range counts {
		x.counts[feedID] = n
		x.total += n
	}
	x.rebuilding = false
	return changed
}

// CancelRebuild resumes incremental maintenance without replacing the
// index, recomputing the aggregate from the counts already held.
func (x *UnreadIndex) CancelRebuild() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.total = 0
	for _, n := range x.counts {
		x.total += n
	}
	x.rebuilding = false
}
