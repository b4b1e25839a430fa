// ABOUTME: Tests for feed normalization across RSS and Atom inputs
// ABOUTME: Exercises GUID fallback, date fallback, and body selection

package parse

import (
	"testing"
	"time"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Daily Notes</title>
    <link>https://notes.example</link>
    <description>assorted notes</description>
    <item>
      <guid>note-100</guid>
      <title>On caching</title>
      <link>https://notes.example/100</link>
      <author>pat@notes.example (Pat Reyes)</author>
      <pubDate>Wed, 04 Jan 2006 10:00:00 GMT</pubDate>
      <description>Cache validators, explained.</description>
      <category>http</category>
    </item>
    <item>
      <title>Untagged note</title>
      <link>https://notes.example/101</link>
      <description>No guid on this one.</description>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Lab Journal</title>
  <link href="https://lab.example"/>
  <updated>2006-01-05T08:00:00Z</updated>
  <entry>
    <id>urn:lab:42</id>
    <title>Solvent trial</title>
    <link href="https://lab.example/42"/>
    <author><name>Kim Osei</name></author>
    <published>2006-01-05T08:00:00Z</published>
    <content type="html">Full writeup here.</content>
    <summary>Short version.</summary>
  </entry>
  <entry>
    <id>urn:lab:43</id>
    <title>Follow-up</title>
    <link href="https://lab.example/43"/>
    <updated>2006-01-06T09:30:00Z</updated>
    <summary>Only a summary.</summary>
  </entry>
</feed>`

func mustParse(t *testing.T, doc string) *Feed {
	t.Helper()
	feed, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return feed
}

func TestParseRSS(t *testing.T) {
	feed := mustParse(t, rssDoc)

	if feed.Title != "Daily Notes" {
		t.Errorf("Title = %q", feed.Title)
	}
	if feed.HomePageURL != "https://notes.example" {
		t.Errorf("HomePageURL = %q", feed.HomePageURL)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(feed.Items))
	}

	first := feed.Items[0]
	if first.GUID != "note-100" {
		t.Errorf("GUID = %q", first.GUID)
	}
	if first.Author != "Pat Reyes" {
		t.Errorf("Author = %q, want the name parsed out of the email form", first.Author)
	}
	if first.Body != "Cache validators, explained." {
		t.Errorf("Body = %q", first.Body)
	}
	if first.PublishedAt == nil {
		t.Error("PublishedAt is nil")
	}
	if len(first.Categories) != 1 || first.Categories[0] != "http" {
		t.Errorf("Categories = %v", first.Categories)
	}
}

func TestParseGUIDFallsBackToLink(t *testing.T) {
	feed := mustParse(t, rssDoc)
	item := feed.Items[1]
	if item.GUID != "https://notes.example/101" {
		t.Errorf("GUID = %q, want the item link", item.GUID)
	}
	if item.Author != "" {
		t.Errorf("Author = %q, want empty", item.Author)
	}
}

func TestParseAtom(t *testing.T) {
	feed := mustParse(t, atomDoc)

	if feed.Title != "Lab Journal" {
		t.Errorf("Title = %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(feed.Items))
	}

	first := feed.Items[0]
	if first.GUID != "urn:lab:42" {
		t.Errorf("GUID = %q", first.GUID)
	}
	if first.Author != "Kim Osei" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.Body != "Full writeup here." {
		t.Errorf("Body = %q, want content preferred over summary", first.Body)
	}
	want := time.Date(2006, 1, 5, 8, 0, 0, 0, time.UTC)
	if first.PublishedAt == nil || !first.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", first.PublishedAt, want)
	}
}

func TestParseDateFallsBackToUpdated(t *testing.T) {
	feed := mustParse(t, atomDoc)
	item := feed.Items[1]

	want := time.Date(2006, 1, 6, 9, 30, 0, 0, time.UTC)
	if item.PublishedAt == nil || !item.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want the updated timestamp %v", item.PublishedAt, want)
	}
	if item.Body != "Only a summary." {
		t.Errorf("Body = %q, want the summary when no content exists", item.Body)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("this is not a feed")); err == nil {
		t.Fatal("expected an error for non-feed input")
	}
}
