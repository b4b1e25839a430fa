// ABOUTME: Tests for OPML parsing and generation
// ABOUTME: Covers folder flattening, dedup, and round-trips

package opml

import (
	"strings"
	"testing"
)

const sampleOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Subscriptions</title></head>
  <body>
    <outline text="Daring Fireball" type="rss" xmlUrl="https://daringfireball.net/feeds/main"/>
    <outline text="Tech">
      <outline text="Ars Technica" type="rss" xmlUrl="https://arstechnica.com/feed/"/>
      <outline text="The Verge" type="rss" xmlUrl="https://www.theverge.com/rss/index.xml"/>
    </outline>
    <outline text="Empty Folder"/>
  </body>
</opml>`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleOPML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Title != "Subscriptions" {
		t.Errorf("expected title 'Subscriptions', got %q", doc.Title)
	}

	feeds := doc.AllFeeds()
	if len(feeds) != 3 {
		t.Fatalf("expected 3 feeds, got %d", len(feeds))
	}
	if feeds[0].Folder != "" {
		t.Errorf("expected first feed at top level, got folder %q", feeds[0].Folder)
	}
	if feeds[1].Folder != "Tech" || feeds[2].Folder != "Tech" {
		t.Errorf("expected Tech folder feeds, got %q and %q", feeds[1].Folder, feeds[2].Folder)
	}
	if feeds[1].Title != "Ars Technica" {
		t.Errorf("expected title 'Ars Technica', got %q", feeds[1].Title)
	}
}

func TestParseKeepsEmptyFolders(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleOPML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	folders := doc.Folders()
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d: %v", len(folders), folders)
	}
	if folders[0] != "Tech" || folders[1] != "Empty Folder" {
		t.Errorf("unexpected folder order: %v", folders)
	}
	if got := doc.FeedsInFolder("Empty Folder"); len(got) != 0 {
		t.Errorf("expected no feeds in empty folder, got %d", len(got))
	}
}

func TestParseFlattensDeepNesting(t *testing.T) {
	deep := `<?xml version="1.0"?>
<opml version="2.0">
  <head><title>Deep</title></head>
  <body>
    <outline text="Outer">
      <outline text="Inner">
        <outline text="Feed" type="rss" xmlUrl="https://example.com/feed"/>
      </outline>
    </outline>
  </body>
</opml>`

	doc, err := Parse(strings.NewReader(deep))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	feeds := doc.AllFeeds()
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
	if feeds[0].Folder != "Outer" {
		t.Errorf("expected feed flattened into 'Outer', got %q", feeds[0].Folder)
	}
}

func TestParseDropsDuplicateURLs(t *testing.T) {
	dup := `<?xml version="1.0"?>
<opml version="2.0">
  <head><title>Dup</title></head>
  <body>
    <outline text="First" type="rss" xmlUrl="https://example.com/feed"/>
    <outline text="Second" type="rss" xmlUrl="https://example.com/feed"/>
  </body>
</opml>`

	doc, err := Parse(strings.NewReader(dup))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	feeds := doc.AllFeeds()
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed after dedup, got %d", len(feeds))
	}
	if feeds[0].Title != "First" {
		t.Errorf("expected first occurrence kept, got %q", feeds[0].Title)
	}
}

func TestAddFeed(t *testing.T) {
	doc := NewDocument("Test")

	if err := doc.AddFeed("https://example.com/feed", "Example", "News"); err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	if err := doc.AddFeed("https://example.com/feed", "Again", ""); err == nil {
		t.Error("expected duplicate URL to be rejected")
	}
	if err := doc.AddFeed("", "No URL", ""); err == nil {
		t.Error("expected empty URL to be rejected")
	}

	folders := doc.Folders()
	if len(folders) != 1 || folders[0] != "News" {
		t.Errorf("expected folder 'News' created implicitly, got %v", folders)
	}
}

func TestAddFolder(t *testing.T) {
	doc := NewDocument("Test")

	if err := doc.AddFolder("News"); err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if err := doc.AddFolder("News"); err != nil {
		t.Errorf("expected re-adding folder to be a no-op, got %v", err)
	}
	if err := doc.AddFolder(""); err == nil {
		t.Error("expected empty folder name to be rejected")
	}
	if len(doc.Folders()) != 1 {
		t.Errorf("expected 1 folder, got %d", len(doc.Folders()))
	}
}

func TestWriteRoundTrip(t *testing.T) {
	doc := NewDocument("My Feeds")
	if err := doc.AddFolder("Quiet"); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddFeed("https://example.com/a", "Feed A", ""); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddFeed("https://example.com/b", "Feed B", "Tech"); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	parsed, err := Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if parsed.Title != "My Feeds" {
		t.Errorf("expected title 'My Feeds', got %q", parsed.Title)
	}
	feeds := parsed.AllFeeds()
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	got := map[string]string{}
	for _, f := range feeds {
		got[f.URL] = f.Folder
	}
	if got["https://example.com/a"] != "" {
		t.Errorf("expected feed A at top level, got %q", got["https://example.com/a"])
	}
	if got["https://example.com/b"] != "Tech" {
		t.Errorf("expected feed B in Tech, got %q", got["https://example.com/b"])
	}

	folders := parsed.Folders()
	foundQuiet := false
	for _, f := range folders {
		if f == "Quiet" {
			foundQuiet = true
		}
	}
	if !foundQuiet {
		t.Errorf("expected empty folder 'Quiet' to survive the round trip, got %v", folders)
	}
}

func TestWriteFile(t *testing.T) {
	doc := NewDocument("Disk")
	if err := doc.AddFeed("https://example.com/feed", "Example", ""); err != nil {
		t.Fatal(err)
	}

	path := t.TempDir() + "/subs.opml"
	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(parsed.AllFeeds()) != 1 {
		t.Errorf("expected 1 feed, got %d", len(parsed.AllFeeds()))
	}
}
