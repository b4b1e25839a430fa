// ABOUTME: Storage contract for per-account article and feed persistence
// ABOUTME: Defines filtered fetch, upsert-by-diff update, and batch status mutation

package storage

import (
	"time"

	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/parse"
)

// ArticleFilter specifies criteria for fetching articles.
type ArticleFilter struct {
	FeedID      *string
	FeedIDs     []string
	ArticleIDs  []string
	UnreadOnly  bool
	StarredOnly bool
	Since       *time.Time
	Until       *time.Time
	Limit       *int
	Offset      *int
}

// ArticleChanges reports the outcome of an upsert-by-diff update.
type ArticleChanges struct {
	New     []*models.Article
	Updated []*models.Article
	Deleted []string
}

// UpdateOptions controls how parsed items are applied to the store.
type UpdateOptions struct {
	// IDFromGUID uses each item's GUID directly as the article ID.
	// Remote-service backends set this so article IDs line up with the
	// service's native item IDs. When false, IDs are derived from
	// (feedID, guid).
	IDFromGUID bool

	// DeleteOlder removes stored articles for the feed that are absent
	// from the incoming item set.
	DeleteOlder bool
}

// Store is the persistence contract consumed by the sync engine.
// All methods are fallible; implementations serialize their own writes.
type Store interface {
	// Close closes the store and releases resources.
	Close() error

	// Feed Operations

	// CreateFeed stores a new feed.
	CreateFeed(feed *models.Feed) error

	// GetFeed retrieves a feed by ID.
	GetFeed(id string) (*models.Feed, error)

	// GetFeedByURL finds a feed by its URL.
	GetFeedByURL(url string) (*models.Feed, error)

	// ListFeeds returns all feeds, sorted by creation date (newest first).
	ListFeeds() ([]*models.Feed, error)

	// UpdateFeed updates an existing feed.
	UpdateFeed(feed *models.Feed) error

	// DeleteFeed removes a feed and all its articles (cascade).
	DeleteFeed(id string) error

	// UpdateFeedFetchState updates feed caching headers and clears errors.
	UpdateFeedFetchState(feedID string, etag, lastModified *string, fetchedAt time.Time) error

	// UpdateFeedError records a fetch error for a feed.
	UpdateFeedError(feedID string, errMsg string) error

	// Article Operations

	// FetchArticles returns articles matching the filter, newest first.
	FetchArticles(filter *ArticleFilter) ([]*models.Article, error)

	// GetArticle retrieves an article by ID.
	GetArticle(id string) (*models.Article, error)

	// UpdateArticles applies parsed items to a feed's article set and
	// reports what was inserted, updated, and deleted.
	UpdateArticles(feedID string, items []parse.Item, opts UpdateOptions) (*ArticleChanges, error)

	// MarkArticles sets a status flag on the given articles, creating
	// missing statuses with defaults, and returns only the IDs whose
	// persisted value actually changed.
	MarkArticles(articleIDs []string, key models.StatusKey, flag bool) ([]string, error)

	// UnreadCounts returns per-feed unread counts for the given feeds.
	UnreadCounts(feedIDs []string) (map[string]int, error)

	// AllUnreadCounts returns unread counts for every feed.
	AllUnreadCounts() (map[string]int, error)

	// CountUnread counts unread articles, optionally for one feed.
	CountUnread(feedID *string) (int, error)

	// AllUnreadArticleIDs returns the set of unread article IDs.
	AllUnreadArticleIDs() (map[string]bool, error)

	// AllStarredArticleIDs returns the set of starred article IDs.
	AllStarredArticleIDs() (map[string]bool, error)

	// FeedIDsForArticles maps article IDs to the feeds they belong to.
	// Status-only IDs with no stored article are omitted.
	FeedIDsForArticles(articleIDs []string) (map[string]string, error)

	// Search performs full-text search, optionally within an ID set.
	Search(query string, limit int, withinIDs []string) ([]*models.Article, error)

	// Account state

	// GetState reads a persisted state value, returning def when unset.
	GetState(key, def string) (string, error)

	// SetState writes a persisted state value.
	SetState(key, value string) error

	// Maintenance

	// Compact performs database maintenance (VACUUM).
	Compact() error
}
