// ABOUTME: Tests for blocklist and classifier-backed item filtering
// ABOUTME: Verifies metadata preservation, ordering, and case-insensitive matching

package filter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/harper/reader/internal/parse"
)

func makeFeed(n int) *parse.Feed {
	feed := &parse.Feed{
		Title:       "Test Feed",
		HomePageURL: "https://example.com",
	}
	for i := 0; i < n; i++ {
		feed.Items = append(feed.Items, parse.Item{
			GUID:  fmt.Sprintf("guid-%d", i),
			Title: fmt.Sprintf("Post %d", i),
			Body:  "plain body",
		})
	}
	return feed
}

func TestBlocklistFilter(t *testing.T) {
	feed := makeFeed(10)
	// 3 items match the block term: two by title, one by body
	feed.Items[2].Title = "SPONSORED: a great deal"
	feed.Items[5].Body = "this post is sponsored by someone"
	feed.Items[8].Title = "Sponsored content"

	filtered := NewBlocklist([]string{"sponsored"}).Filter(feed)

	if filtered.Title != "Test Feed" {
		t.Errorf("Title = %q, want %q", filtered.Title, "Test Feed")
	}
	if filtered.HomePageURL != "https://example.com" {
		t.Errorf("HomePageURL = %q, want %q", filtered.HomePageURL, "https://example.com")
	}
	if len(filtered.Items) != 7 {
		t.Fatalf("len(Items) = %d, want 7", len(filtered.Items))
	}

	// Relative order of survivors preserved
	want := []string{"guid-0", "guid-1", "guid-3", "guid-4", "guid-6", "guid-7", "guid-9"}
	for i, guid := range want {
		if filtered.Items[i].GUID != guid {
			t.Errorf("Items[%d].GUID = %q, want %q", i, filtered.Items[i].GUID, guid)
		}
	}
}

func TestBlocklistCaseInsensitive(t *testing.T) {
	feed := makeFeed(2)
	feed.Items[0].Title = "CRYPTO news"

	filtered := NewBlocklist([]string{"Crypto"}).Filter(feed)
	if len(filtered.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(filtered.Items))
	}
	if filtered.Items[0].GUID != "guid-1" {
		t.Errorf("kept %q, want guid-1", filtered.Items[0].GUID)
	}
}

func TestBlocklistNoTerms(t *testing.T) {
	feed := makeFeed(3)
	filtered := NewBlocklist(nil).Filter(feed)
	if len(filtered.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3 (no terms = passthrough)", len(filtered.Items))
	}
}

type prefixClassifier struct{ prefix string }

func (c prefixClassifier) Block(title, body string) bool {
	return strings.HasPrefix(title, c.prefix)
}

func TestClassifierFilter(t *testing.T) {
	feed := makeFeed(4)
	feed.Items[1].Title = "AD: buy things"
	feed.Items[3].Title = "AD: more things"

	filtered := NewClassifierFilter(prefixClassifier{prefix: "AD:"}).Filter(feed)
	if len(filtered.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(filtered.Items))
	}
	if filtered.Items[0].GUID != "guid-0" || filtered.Items[1].GUID != "guid-2" {
		t.Errorf("kept %q %q, want guid-0 guid-2", filtered.Items[0].GUID, filtered.Items[1].GUID)
	}
	if filtered.Title != feed.Title {
		t.Errorf("Title = %q, want %q", filtered.Title, feed.Title)
	}
}
