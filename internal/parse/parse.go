// ABOUTME: RSS/Atom parsing via gofeed into a normalized feed shape
// ABOUTME: Items get stable GUIDs, resolved authors, and a single body field

package parse

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Feed is a parsed feed document, normalized across formats.
type Feed struct {
	Title       string
	HomePageURL string
	Items       []Item
}

// Item is one normalized feed entry. GUID is never empty: entries
// without a native identifier fall back to their link.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Author      string
	PublishedAt *time.Time
	Body        string
	Categories  []string
}

// Parse reads an RSS, Atom, or JSON Feed document.
func Parse(data []byte) (*Feed, error) {
	src, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	feed := &Feed{
		Title:       src.Title,
		HomePageURL: src.Link,
		Items:       make([]Item, len(src.Items)),
	}
	for i, entry := range src.Items {
		feed.Items[i] = normalize(entry)
	}
	return feed, nil
}

func normalize(entry *gofeed.Item) Item {
	item := Item{
		GUID:        entry.GUID,
		Title:       entry.Title,
		Link:        entry.Link,
		Categories:  entry.Categories,
		PublishedAt: entry.PublishedParsed,
	}
	if item.GUID == "" {
		item.GUID = entry.Link
	}
	if entry.Author != nil {
		item.Author = entry.Author.Name
	}
	if item.PublishedAt == nil {
		item.PublishedAt = entry.UpdatedParsed
	}

	// Atom carries full content and a summary; prefer the content.
	body := entry.Content
	if body == "" {
		body = entry.Description
	}
	item.Body = strings.TrimSpace(body)
	return item
}
