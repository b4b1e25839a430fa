// ABOUTME: Feed autodiscovery from an arbitrary page URL
// ABOUTME: Direct parse, then HTML alternate links, then path probing

package discover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/harper/reader/internal/fetch"
	"github.com/harper/reader/internal/parse"
)

var (
	ErrNoFeedFound = errors.New("no RSS/Atom feed found at URL")
	ErrInvalidURL  = errors.New("invalid URL")
)

// probePaths are tried against the site root when the page itself
// yields nothing. Ordered by how often they hit in practice.
var probePaths = []string{
	"/feed.xml",
	"/feed",
	"/rss.xml",
	"/rss",
	"/atom.xml",
	"/atom",
	"/index.xml",
	"/feed/rss",
	"/feed/atom",
	"/feeds/posts/default",
}

// DiscoveredFeed is a verified feed located by Discover.
type DiscoveredFeed struct {
	URL   string
	Title string
}

// Discover locates the feed behind inputURL. The URL may point at the
// feed itself, at an HTML page advertising one via a link element, or
// at a site whose feed lives on a conventional path.
func Discover(ctx context.Context, inputURL string) (*DiscoveredFeed, error) {
	base, err := url.Parse(inputURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	}

	feed, body, err := tryFeed(ctx, inputURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if feed != nil {
		return feed, nil
	}

	// The URL served something that is not a feed. Treat it as HTML
	// and chase its alternate links, verifying each candidate.
	for _, candidate := range alternateLinks(body, base) {
		verified, _, err := tryFeed(ctx, candidate.URL)
		if err != nil || verified == nil {
			continue
		}
		if verified.Title == "" {
			verified.Title = candidate.Title
		}
		return verified, nil
	}

	root := url.URL{Scheme: base.Scheme, Host: base.Host}
	for _, path := range probePaths {
		feed, _, err := tryFeed(ctx, root.String()+path)
		if err == nil && feed != nil {
			return feed, nil
		}
	}

	return nil, ErrNoFeedFound
}

// tryFeed fetches the URL and attempts to parse the response as a
// feed. A fetchable non-feed response returns (nil, body, nil) so the
// caller can fall back to HTML discovery.
func tryFeed(ctx context.Context, feedURL string) (*DiscoveredFeed, []byte, error) {
	result, err := fetch.Fetch(ctx, feedURL, fetch.Conditional{})
	if err != nil {
		return nil, nil, err
	}

	parsed, err := parse.Parse(result.Body)
	if err != nil {
		return nil, result.Body, nil
	}
	return &DiscoveredFeed{URL: feedURL, Title: parsed.Title}, result.Body, nil
}

// alternateLinks extracts feed candidates from the link elements of an
// HTML document, resolving relative hrefs against base.
func alternateLinks(body []byte, base *url.URL) []DiscoveredFeed {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var feeds []DiscoveredFeed
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			if f, ok := feedLink(n, base); ok {
				feeds = append(feeds, f)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return feeds
}

func feedLink(n *html.Node, base *url.URL) (DiscoveredFeed, bool) {
	var rel, typ, href, title string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "rel":
			rel = attr.Val
		case "type":
			typ = attr.Val
		case "href":
			href = attr.Val
		case "title":
			title = attr.Val
		}
	}
	if rel != "alternate" || href == "" || !feedType(typ) {
		return DiscoveredFeed{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return DiscoveredFeed{}, false
	}
	return DiscoveredFeed{URL: base.ResolveReference(ref).String(), Title: title}, true
}

func feedType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "rss") ||
		strings.Contains(ct, "atom") ||
		strings.Contains(ct, "xml")
}
