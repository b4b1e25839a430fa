// ABOUTME: Tests for feed autodiscovery
// ABOUTME: Exercises direct feeds, HTML link chasing, and path probing

package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testFeedXML = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item><title>First Post</title><link>https://example.com/1</link></item>
  </channel>
</rss>`

func TestDiscoverDirectFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeedXML)
	}))
	defer server.Close()

	feed, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if feed.URL != server.URL {
		t.Errorf("expected URL %q, got %q", server.URL, feed.URL)
	}
	if feed.Title != "Test Feed" {
		t.Errorf("expected title 'Test Feed', got %q", feed.Title)
	}
}

func TestDiscoverViaAlternateLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<link rel="stylesheet" href="/style.css">
			<link rel="alternate" type="application/rss+xml" title="Site Feed" href="/blog/feed">
		</head><body>welcome</body></html>`)
	})
	mux.HandleFunc("/blog/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeedXML)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	feed, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if feed.URL != server.URL+"/blog/feed" {
		t.Errorf("expected relative href resolved, got %q", feed.URL)
	}
	if feed.Title != "Test Feed" {
		t.Errorf("expected feed's own title to win, got %q", feed.Title)
	}
}

func TestDiscoverSkipsDeadAlternateLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<link rel="alternate" type="application/rss+xml" href="/broken">
			<link rel="alternate" type="application/atom+xml" href="/working">
		</head></html>`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/working", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeedXML)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	feed, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if feed.URL != server.URL+"/working" {
		t.Errorf("expected the verifiable candidate, got %q", feed.URL)
	}
}

func TestDiscoverProbesCommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>No links here</title></head></html>`)
	})
	mux.HandleFunc("/atom.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeedXML)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	feed, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if feed.URL != server.URL+"/atom.xml" {
		t.Errorf("expected probe to find /atom.xml, got %q", feed.URL)
	}
}

func TestDiscoverNoFeedFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>nothing to subscribe to</body></html>`)
	}))
	defer server.Close()

	_, err := Discover(context.Background(), server.URL)
	if err != ErrNoFeedFound {
		t.Errorf("expected ErrNoFeedFound, got %v", err)
	}
}

func TestDiscoverRejectsInvalidURLs(t *testing.T) {
	for _, input := range []string{"example.com/feed", "/just/a/path", ""} {
		if _, err := Discover(context.Background(), input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestFeedType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/rss+xml", true},
		{"application/atom+xml", true},
		{"text/xml", true},
		{"Application/RSS+XML", true},
		{"text/html", false},
		{"text/css", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := feedType(tt.contentType); got != tt.want {
			t.Errorf("feedType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
