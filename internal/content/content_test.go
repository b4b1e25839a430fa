// ABOUTME: Tests for article body display preparation
// ABOUTME: Covers HTML detection, conversion, and whitespace tidying

package content

import (
	"strings"
	"testing"
)

func TestIsHTML(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"paragraph tag", "<p>Hello world</p>", true},
		{"anchor with attributes", `Read <a href="https://example.com">this</a>`, true},
		{"doctype", "<!DOCTYPE html><body>hi</body>", true},
		{"heading", "<h2>Section</h2>", true},
		{"uppercase tag", "<P>shouting</P>", true},
		{"plain text", "Just a plain sentence.", false},
		{"angle brackets in prose", "for i < 10 and j > 2", false},
		{"markdown", "# Title\n\nSome *emphasis* here", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHTML(tt.body); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestToMarkdownConvertsHTML(t *testing.T) {
	got := ToMarkdown(`<p>Hello <strong>world</strong></p><p>Second paragraph with <a href="https://example.com">a link</a>.</p>`)

	if !strings.Contains(got, "**world**") {
		t.Errorf("expected bold markdown, got %q", got)
	}
	if !strings.Contains(got, "[a link](https://example.com)") {
		t.Errorf("expected link markdown, got %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("expected HTML tags stripped, got %q", got)
	}
}

func TestToMarkdownLeavesPlainTextAlone(t *testing.T) {
	body := "No markup here, just text.\n\nTwo paragraphs."
	if got := ToMarkdown(body); got != body {
		t.Errorf("expected plain text unchanged, got %q", got)
	}

	if got := ToMarkdown(""); got != "" {
		t.Errorf("expected empty body unchanged, got %q", got)
	}
}

func TestTidy(t *testing.T) {
	got := Tidy("\n\n\nfirst\n\n\n\nsecond\n\n")

	want := "first\n\nsecond"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
