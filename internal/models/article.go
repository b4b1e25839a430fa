// ABOUTME: Article model with per-article status flags (read, starred)
// ABOUTME: Status lives separately from content so flags can precede article bodies

package models

import "time"

// StatusKey names a boolean status flag on an article.
type StatusKey string

const (
	StatusRead    StatusKey = "read"
	StatusStarred StatusKey = "starred"
)

// ArticleStatus holds the per-article flags. A status can exist for an
// article whose content has not been downloaded yet.
type ArticleStatus struct {
	Read        bool
	Starred     bool
	DateArrived time.Time
}

// Flag returns the value of the named flag.
func (s ArticleStatus) Flag(key StatusKey) bool {
	switch key {
	case StatusRead:
		return s.Read
	case StatusStarred:
		return s.Starred
	}
	return false
}

// SetFlag sets the named flag.
func (s *ArticleStatus) SetFlag(key StatusKey, flag bool) {
	switch key {
	case StatusRead:
		s.Read = flag
	case StatusStarred:
		s.Starred = flag
	}
}

// Article represents one item within a feed.
type Article struct {
	ID          string     // Deterministic identifier derived from feed ID and GUID
	FeedID      string     // Owning feed
	GUID        string     // Item identity within the feed
	Title       *string    // Item title
	Link        *string    // Permalink
	Author      *string    // Author name
	PublishedAt *time.Time // Publication timestamp (if the feed provided one)
	Body        *string    // Item content, HTML
	Status      ArticleStatus
}

// DisplayTitle returns the article title, falling back to the link.
func (a *Article) DisplayTitle() string {
	if a.Title != nil && *a.Title != "" {
		return *a.Title
	}
	if a.Link != nil && *a.Link != "" {
		return *a.Link
	}
	return a.GUID
}
