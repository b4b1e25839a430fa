// ABOUTME: Typed change events published by an account
// ABOUTME: Explicit listener registry instead of a process-wide notification center

package account

import (
	"sync"

	"github.com/harper/reader/internal/models"
)

// Event is a change notification published by an Account.
type Event interface {
	event()
}

// RefreshBegan signals that a refresh pass started.
type RefreshBegan struct{}

// RefreshEnded signals that a refresh pass finished. Err is nil on
// success and carries the terminal error otherwise.
type RefreshEnded struct {
	Err error
}

// StatusesChanged carries exactly the article IDs whose persisted
// status value actually changed, the feeds they belong to, and the
// status key/flag that changed. One event per batch, not per article.
type StatusesChanged struct {
	ArticleIDs []string
	FeedIDs    []string
	Key        models.StatusKey
	Flag       bool
}

// UnreadCountsChanged signals that the cached unread counts for the
// given feeds were updated.
type UnreadCountsChanged struct {
	FeedIDs []string
}

// StructureChanged signals feeds or folders were added, removed, or
// moved.
type StructureChanged struct{}

// ArticlesDownloaded carries freshly stored article content.
type ArticlesDownloaded struct {
	FeedID  string
	New     []*models.Article
	Updated []*models.Article
}

func (RefreshBegan) event()        {}
func (RefreshEnded) event()        {}
func (StatusesChanged) event()     {}
func (UnreadCountsChanged) event() {}
func (StructureChanged) event()    {}
func (ArticlesDownloaded) event()  {}

// Bus dispatches events to registered listeners. Dispatch is
// synchronous and in registration order.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(Event)
}

// Subscribe registers a listener for all events. The returned cancel
// function removes it; long-lived callers must call it to avoid
// accumulating listeners.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), len(b.listeners))
	for i, l := range b.listeners {
		fns[i] = l.fn
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
