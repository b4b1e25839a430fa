// ABOUTME: Item filtering applied to freshly parsed feeds before ingestion
// ABOUTME: Blocklist substring matching plus a classifier-backed variant

package filter

import (
	"strings"

	"github.com/harper/reader/internal/parse"
)

// ItemFilter narrows a parsed feed to a subset of its items.
// Implementations must preserve feed metadata and the relative order
// of the items they keep.
type ItemFilter interface {
	Filter(feed *parse.Feed) *parse.Feed
}

// Blocklist excludes items whose title or body contains any of the
// configured terms, case-insensitively. A Blocklist with no terms
// passes everything through.
type Blocklist struct {
	terms []string
}

// NewBlocklist creates a Blocklist from the given terms. Empty terms
// are dropped.
func NewBlocklist(terms []string) *Blocklist {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			kept = append(kept, t)
		}
	}
	return &Blocklist{terms: kept}
}

// Filter returns a feed with the same metadata and only the items that
// match no block term.
func (b *Blocklist) Filter(feed *parse.Feed) *parse.Feed {
	if feed == nil || len(b.terms) == 0 {
		return feed
	}

	out := &parse.Feed{
		Title:       feed.Title,
		HomePageURL: feed.HomePageURL,
		Items:       make([]parse.Item, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if b.blocks(item) {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (b *Blocklist) blocks(item parse.Item) bool {
	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Body)
	for _, term := range b.terms {
		if strings.Contains(title, term) || strings.Contains(body, term) {
			return true
		}
	}
	return false
}

// Classifier decides whether a single item should be excluded.
type Classifier interface {
	Block(title, body string) bool
}

// ClassifierFilter satisfies ItemFilter using a Classifier instead of
// substring matching.
type ClassifierFilter struct {
	classifier Classifier
}

// NewClassifierFilter creates a ClassifierFilter.
func NewClassifierFilter(c Classifier) *ClassifierFilter {
	return &ClassifierFilter{classifier: c}
}

// Filter returns a feed with the same metadata and only the items the
// classifier does not block.
func (f *ClassifierFilter) Filter(feed *parse.Feed) *parse.Feed {
	if feed == nil || f.classifier == nil {
		return feed
	}

	out := &parse.Feed{
		Title:       feed.Title,
		HomePageURL: feed.HomePageURL,
		Items:       make([]parse.Item, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if f.classifier.Block(item.Title, item.Body) {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out
}

var (
	_ ItemFilter = (*Blocklist)(nil)
	_ ItemFilter = (*ClassifierFilter)(nil)
)
