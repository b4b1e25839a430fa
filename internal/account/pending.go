// ABOUTME: Set of locally changed statuses not yet confirmed pushed upstream
// ABOUTME: Suppresses stale remote reads from clobbering optimistic local writes

package account

import (
	"sync"

	"github.com/harper/reader/internal/models"
)

// PendingStatuses tracks article IDs whose read/starred flag was
// changed locally and not yet confirmed pushed to the remote backend.
// An entry is created on every local mark for remote-backed accounts
// and cleared only after a successful push round-trip. Any remote read
// covering one of these IDs must be suppressed until then.
type PendingStatuses struct {
	mu      sync.Mutex
	entries map[models.StatusKey]map[string]bool
	flags   map[models.StatusKey]map[string]bool // the locally desired value, for the push
}

// NewPendingStatuses creates an empty pending set.
func NewPendingStatuses() *PendingStatuses {
	return &PendingStatuses{
		entries: make(map[models.StatusKey]map[string]bool),
		flags:   make(map[models.StatusKey]map[string]bool),
	}
}

// Add records locally changed IDs for the given key and desired flag.
func (p *PendingStatuses) Add(articleIDs []string, key models.StatusKey, flag bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entries[key] == nil {
		p.entries[key] = make(map[string]bool)
		p.flags[key] = make(map[string]bool)
	}
	for _, id := range articleIDs {
		p.entries[key][id] = true
		p.flags[key][id] = flag
	}
}

// Clear removes IDs after a confirmed push.
func (p *PendingStatuses) Clear(articleIDs []string, key models.StatusKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range articleIDs {
		delete(p.entries[key], id)
		delete(p.flags[key], id)
	}
}

// Has reports whether the ID has an unpushed change for the key.
func (p *PendingStatuses) Has(articleID string, key models.StatusKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[key][articleID]
}

// IDSet returns a copy of the pending ID set for the key.
func (p *PendingStatuses) IDSet(key models.StatusKey) map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.entries[key]))
	for id := range p.entries[key] {
		out[id] = true
	}
	return out
}

// Batches returns the pending IDs for the key grouped by desired flag,
// the shape a push operation needs.
func (p *PendingStatuses) Batches(key models.StatusKey) (setTrue, setFalse []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.entries[key] {
		if p.flags[key][id] {
			setTrue = append(setTrue, id)
		} else {
			setFalse = append(setFalse, id)
		}
	}
	return setTrue, setFalse
}

// Len returns the total number of pending entries across keys.
func (p *PendingStatuses) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ids := range p.entries {
		n += len(ids)
	}
	return n
}
