// ABOUTME: Tests for the conditional HTTP fetcher
// ABOUTME: Covers validator headers, 304 handling, and error statuses

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestFetchPlainRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			t.Error("unconditional request carried validator headers")
		}
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	result, err := Fetch(context.Background(), server.URL, Conditional{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.NotModified {
		t.Error("fresh fetch reported NotModified")
	}
	if string(result.Body) != "<rss></rss>" {
		t.Errorf("body = %q", result.Body)
	}
	if result.ETag != `"abc"` {
		t.Errorf("ETag = %q", result.ETag)
	}
	if result.LastModified == "" {
		t.Error("Last-Modified not captured")
	}
}

func TestFetchSendsValidators(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != `"abc"` {
			t.Errorf("If-None-Match = %q", r.Header.Get("If-None-Match"))
		}
		if r.Header.Get("If-Modified-Since") != "yesterday" {
			t.Errorf("If-Modified-Since = %q", r.Header.Get("If-Modified-Since"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	cond := Conditional{ETag: strPtr(`"abc"`), LastModified: strPtr("yesterday")}
	result, err := Fetch(context.Background(), server.URL, cond)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !result.NotModified {
		t.Error("304 response did not report NotModified")
	}
	if len(result.Body) != 0 {
		t.Errorf("304 result carried a body of %d bytes", len(result.Body))
	}
}

func TestFetchEmptyValidatorsNotSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["If-None-Match"]; ok {
			t.Error("empty ETag produced an If-None-Match header")
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL, Conditional{ETag: strPtr("")}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), server.URL, Conditional{})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not name the status", err)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	if _, err := Fetch(context.Background(), "://not-a-url", Conditional{}); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, server.URL, Conditional{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestReadCappedRejectsOversizedBody(t *testing.T) {
	if _, err := readCapped(strings.NewReader(strings.Repeat("x", maxBodyBytes+1))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestReadCappedAcceptsBodyAtLimit(t *testing.T) {
	body, err := readCapped(strings.NewReader(strings.Repeat("x", maxBodyBytes)))
	if err != nil {
		t.Fatalf("readCapped: %v", err)
	}
	if len(body) != maxBodyBytes {
		t.Errorf("len = %d, want %d", len(body), maxBodyBytes)
	}
}
