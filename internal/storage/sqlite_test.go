// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers upsert-by-diff updates, batch status marks, count queries, and state keys

package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/parse"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testFeed(t *testing.T, store *SQLiteStore, url string) *models.Feed {
	t.Helper()
	feed := models.NewFeed(url)
	if err := store.CreateFeed(feed); err != nil {
		t.Fatalf("CreateFeed failed: %v", err)
	}
	return feed
}

func testItems(n int) []parse.Item {
	items := make([]parse.Item, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range items {
		ts := base.Add(time.Duration(i) * time.Hour)
		items[i] = parse.Item{
			GUID:        "guid-" + string(rune('a'+i)),
			Title:       "Title " + string(rune('a'+i)),
			Link:        "https://example.com/" + string(rune('a'+i)),
			Body:        "body",
			PublishedAt: &ts,
		}
	}
	return items
}

func TestUpdateArticlesNewAndUpdated(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	items := testItems(3)
	changes, err := store.UpdateArticles(feed.ID, items, UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	if len(changes.New) != 3 || len(changes.Updated) != 0 {
		t.Fatalf("got %d new, %d updated; want 3, 0", len(changes.New), len(changes.Updated))
	}

	// Same items again: no diff at all
	changes, err = store.UpdateArticles(feed.ID, items, UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	if len(changes.New) != 0 || len(changes.Updated) != 0 {
		t.Errorf("got %d new, %d updated; want 0, 0 for identical items", len(changes.New), len(changes.Updated))
	}

	// Edit one title: exactly one updated
	items[1].Title = "Edited"
	changes, err = store.UpdateArticles(feed.ID, items, UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	if len(changes.New) != 0 || len(changes.Updated) != 1 {
		t.Errorf("got %d new, %d updated; want 0, 1", len(changes.New), len(changes.Updated))
	}
}

func TestUpdateArticlesDeleteOlder(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	items := testItems(3)
	if _, err := store.UpdateArticles(feed.ID, items, UpdateOptions{}); err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}

	changes, err := store.UpdateArticles(feed.ID, items[1:], UpdateOptions{DeleteOlder: true})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	if len(changes.Deleted) != 1 {
		t.Fatalf("got %d deleted, want 1", len(changes.Deleted))
	}
	if changes.Deleted[0] != ArticleID(feed.ID, items[0].GUID) {
		t.Errorf("deleted %q, want %q", changes.Deleted[0], ArticleID(feed.ID, items[0].GUID))
	}
}

func TestUpdateArticlesIDFromGUID(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	items := []parse.Item{{GUID: "remote-item-001", Title: "Remote"}}
	changes, err := store.UpdateArticles(feed.ID, items, UpdateOptions{IDFromGUID: true})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	if len(changes.New) != 1 || changes.New[0].ID != "remote-item-001" {
		t.Fatalf("article ID = %q, want remote-item-001", changes.New[0].ID)
	}
}

func TestMarkArticlesReturnsOnlyChanged(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	changes, err := store.UpdateArticles(feed.ID, testItems(3), UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	ids := make([]string, 0, 3)
	for _, a := range changes.New {
		ids = append(ids, a.ID)
	}

	changed, err := store.MarkArticles(ids, models.StatusRead, true)
	if err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}
	if len(changed) != 3 {
		t.Fatalf("first mark changed %d, want 3", len(changed))
	}

	// Idempotent: second identical mark is an empty diff
	changed, err = store.MarkArticles(ids, models.StatusRead, true)
	if err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("second mark changed %d, want 0", len(changed))
	}
}

func TestMarkArticlesCreatesMissingStatuses(t *testing.T) {
	store := testStore(t)

	// IDs with no stored article: statuses are created so a remote
	// service can report state before content arrives.
	changed, err := store.MarkArticles([]string{"ghost-1", "ghost-2"}, models.StatusStarred, true)
	if err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("changed %d, want 2", len(changed))
	}

	starred, err := store.AllStarredArticleIDs()
	if err != nil {
		t.Fatalf("AllStarredArticleIDs failed: %v", err)
	}
	if !starred["ghost-1"] || !starred["ghost-2"] {
		t.Errorf("starred set = %v, want ghost-1 and ghost-2", starred)
	}

	// Created via a starred mark, so they default to read
	unread, err := store.AllUnreadArticleIDs()
	if err != nil {
		t.Fatalf("AllUnreadArticleIDs failed: %v", err)
	}
	if unread["ghost-1"] {
		t.Error("ghost-1 should default to read")
	}
}

func TestUnreadCounts(t *testing.T) {
	store := testStore(t)
	feedA := testFeed(t, store, "https://a.example.com/feed.xml")
	feedB := testFeed(t, store, "https://b.example.com/feed.xml")

	changesA, _ := store.UpdateArticles(feedA.ID, testItems(3), UpdateOptions{})
	if _, err := store.UpdateArticles(feedB.ID, testItems(2), UpdateOptions{}); err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}

	// Mark one of feedA's articles read
	if _, err := store.MarkArticles([]string{changesA.New[0].ID}, models.StatusRead, true); err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}

	counts, err := store.UnreadCounts([]string{feedA.ID, feedB.ID})
	if err != nil {
		t.Fatalf("UnreadCounts failed: %v", err)
	}
	if counts[feedA.ID] != 2 || counts[feedB.ID] != 2 {
		t.Errorf("counts = %v, want {%s:2 %s:2}", counts, feedA.ID, feedB.ID)
	}

	all, err := store.AllUnreadCounts()
	if err != nil {
		t.Fatalf("AllUnreadCounts failed: %v", err)
	}
	if all[feedA.ID] != counts[feedA.ID] || all[feedB.ID] != counts[feedB.ID] {
		t.Errorf("AllUnreadCounts %v diverges from UnreadCounts %v", all, counts)
	}

	n, err := store.CountUnread(&feedA.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountUnread = %d, want 2", n)
	}
}

func TestFetchArticlesFilters(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")
	changes, _ := store.UpdateArticles(feed.ID, testItems(4), UpdateOptions{})

	if _, err := store.MarkArticles([]string{changes.New[0].ID}, models.StatusRead, true); err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}
	if _, err := store.MarkArticles([]string{changes.New[1].ID}, models.StatusStarred, true); err != nil {
		t.Fatalf("MarkArticles failed: %v", err)
	}

	unread, err := store.FetchArticles(&ArticleFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("FetchArticles failed: %v", err)
	}
	if len(unread) != 3 {
		t.Errorf("unread = %d, want 3", len(unread))
	}

	starred, err := store.FetchArticles(&ArticleFilter{StarredOnly: true})
	if err != nil {
		t.Fatalf("FetchArticles failed: %v", err)
	}
	if len(starred) != 1 || starred[0].ID != changes.New[1].ID {
		t.Errorf("starred = %v, want exactly %s", starred, changes.New[1].ID)
	}

	limit := 2
	limited, err := store.FetchArticles(&ArticleFilter{Limit: &limit})
	if err != nil {
		t.Fatalf("FetchArticles failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}

	byIDs, err := store.FetchArticles(&ArticleFilter{ArticleIDs: []string{changes.New[2].ID}})
	if err != nil {
		t.Fatalf("FetchArticles failed: %v", err)
	}
	if len(byIDs) != 1 || byIDs[0].ID != changes.New[2].ID {
		t.Errorf("byIDs = %v, want exactly %s", byIDs, changes.New[2].ID)
	}
}

func TestFeedIDsForArticles(t *testing.T) {
	store := testStore(t)
	feedA := testFeed(t, store, "https://a.example.com/feed.xml")
	feedB := testFeed(t, store, "https://b.example.com/feed.xml")
	changesA, _ := store.UpdateArticles(feedA.ID, testItems(1), UpdateOptions{})
	changesB, _ := store.UpdateArticles(feedB.ID, testItems(1), UpdateOptions{})

	mapping, err := store.FeedIDsForArticles([]string{changesA.New[0].ID, changesB.New[0].ID, "ghost"})
	if err != nil {
		t.Fatalf("FeedIDsForArticles failed: %v", err)
	}
	if mapping[changesA.New[0].ID] != feedA.ID || mapping[changesB.New[0].ID] != feedB.ID {
		t.Errorf("mapping = %v", mapping)
	}
	if _, ok := mapping["ghost"]; ok {
		t.Error("status-only ID should be omitted from the mapping")
	}
}

func TestSearch(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	items := testItems(2)
	items[0].Title = "Kubernetes at scale"
	items[1].Title = "Gardening tips"
	changes, _ := store.UpdateArticles(feed.ID, items, UpdateOptions{})

	results, err := store.Search("kubernetes", 10, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != changes.New[0].ID {
		t.Fatalf("Search = %v, want the kubernetes article", results)
	}

	// Search restricted to an ID set that excludes the match
	results, err = store.Search("kubernetes", 10, []string{changes.New[1].ID})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search within excluding set = %d results, want 0", len(results))
	}
}

func TestStateRoundTrip(t *testing.T) {
	store := testStore(t)

	v, err := store.GetState("last_fetch", "0")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if v != "0" {
		t.Errorf("default = %q, want 0", v)
	}

	if err := store.SetState("last_fetch", "12345"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := store.SetState("last_fetch", "67890"); err != nil {
		t.Fatalf("SetState overwrite failed: %v", err)
	}

	v, err = store.GetState("last_fetch", "0")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if v != "67890" {
		t.Errorf("value = %q, want 67890", v)
	}
}

func TestFetchedArticlesCarryArrivalTimestamps(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	changes, err := store.UpdateArticles(feed.ID, testItems(3), UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}

	// Every inserted article has a status row; reading them back must
	// scan the arrival timestamp, not fail on it.
	articles, err := store.FetchArticles(nil)
	if err != nil {
		t.Fatalf("FetchArticles failed: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("got %d articles, want 3", len(articles))
	}
	for _, a := range articles {
		if a.Status.DateArrived.IsZero() {
			t.Errorf("article %s has zero DateArrived", a.ID)
		}
	}

	got, err := store.GetArticle(changes.New[0].ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Status.DateArrived.IsZero() {
		t.Error("GetArticle returned zero DateArrived")
	}
}

func TestMarkArticlesConcurrentWriters(t *testing.T) {
	store := testStore(t)
	feed := testFeed(t, store, "https://example.com/feed.xml")

	items := make([]parse.Item, 200)
	for i := range items {
		items[i] = parse.Item{GUID: fmt.Sprintf("guid-%03d", i), Title: "t", Body: "b"}
	}
	changes, err := store.UpdateArticles(feed.ID, items, UpdateOptions{})
	if err != nil {
		t.Fatalf("UpdateArticles failed: %v", err)
	}
	ids := make([]string, len(changes.New))
	for i, a := range changes.New {
		ids[i] = a.ID
	}

	// Two write transactions racing, as the reconciler does when it
	// applies both directions of a status diff at once.
	errs := make(chan error, 2)
	go func() {
		_, err := store.MarkArticles(ids[:100], models.StatusRead, true)
		errs <- err
	}()
	go func() {
		_, err := store.MarkArticles(ids[100:], models.StatusStarred, true)
		errs <- err
	}()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent MarkArticles failed: %v", err)
		}
	}

	n, err := store.CountUnread(nil)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if n != 100 {
		t.Errorf("unread = %d, want 100", n)
	}
	starred, err := store.AllStarredArticleIDs()
	if err != nil {
		t.Fatalf("AllStarredArticleIDs failed: %v", err)
	}
	if len(starred) != 100 {
		t.Errorf("starred = %d, want 100", len(starred))
	}
}
