// ABOUTME: Feed model representing a subscription with HTTP caching support
// ABOUTME: Tracks metadata, backend-native identifiers, and fetch history

package models

import (
	"time"

	"github.com/google/uuid"
)

// Feed represents a single feed subscription within an account.
type Feed struct {
	ID            string     // Stable identifier for the feed
	URL           string     // Feed URL
	ExternalID    *string    // Backend-native identifier, used for O(1) lookup when syncing
	Name          *string    // Feed name (from feed metadata or user rename)
	HomePageURL   *string    // Site home page
	Folder        string     // Folder name for organization (empty = top level)
	ETag          *string    // HTTP ETag header for conditional requests
	LastModified  *string    // HTTP Last-Modified header for conditional requests
	LastFetchedAt *time.Time // Timestamp of last successful fetch
	LastError     *string    // Last fetch error message (if any)
	ErrorCount    int        // Consecutive error count for backoff strategy
	CreatedAt     time.Time  // Subscription creation timestamp
}

// NewFeed creates a new Feed with a generated ID and timestamp.
func NewFeed(url string) *Feed {
	return &Feed{
		ID:        uuid.New().String(),
		URL:       url,
		CreatedAt: time.Now(),
	}
}

// DisplayName returns the feed name, falling back to the URL.
func (f *Feed) DisplayName() string {
	if f.Name != nil && *f.Name != "" {
		return *f.Name
	}
	return f.URL
}

// SetCacheHeaders updates the feed's HTTP caching headers for conditional requests.
func (f *Feed) SetCacheHeaders(etag, lastModified string) {
	if etag != "" {
		f.ETag = &etag
	}
	if lastModified != "" {
		f.LastModified = &lastModified
	}
}
