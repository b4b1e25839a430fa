// ABOUTME: HTTP fetcher for feed documents with conditional-request support
// ABOUTME: Sends ETag/Last-Modified validators and reports 304s without a body

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// maxBodyBytes caps feed documents at 10MB.
	maxBodyBytes = 10 << 20

	requestTimeout = 30 * time.Second

	userAgent = "reader/1.0 (feed reader)"
)

// ErrTooLarge is returned when a response body exceeds the size cap.
var ErrTooLarge = errors.New("response body too large")

// Conditional carries the cache validators from a previous fetch. The
// zero value sends an unconditional request.
type Conditional struct {
	ETag         *string
	LastModified *string
}

// Result is the outcome of one fetch. When NotModified is set the body
// and validators are empty: the caller's cached copy is still current.
type Result struct {
	Body         []byte
	ETag         string
	LastModified string
	NotModified  bool
}

// Client is the shared HTTP client. Tests may swap it.
var Client = &http.Client{Timeout: requestTimeout}

// Fetch retrieves a URL, sending If-None-Match and If-Modified-Since
// headers when cond carries validators. A 304 response yields a Result
// with NotModified set. Hosts resolving to private address ranges are
// refused before any request is made.
func Fetch(ctx context.Context, rawURL string, cond Conditional) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if err := checkHost(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if v := cond.ETag; v != nil && *v != "" {
		req.Header.Set("If-None-Match", *v)
	}
	if v := cond.LastModified; v != nil && *v != "" {
		req.Header.Set("If-Modified-Since", *v)
	}

	resp, err := Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return &Result{NotModified: true}, nil
	case http.StatusOK:
		// fall through to the body read
	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := readCapped(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return &Result{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// checkHost refuses hosts that resolve to private address ranges.
// Loopback is allowed so local test servers work.
func checkHost(u *url.URL) error {
	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		// Unresolvable hosts fail later at connect time with a
		// better error.
		return nil
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			continue
		}
		if ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("host %s resolves to a private address", u.Hostname())
		}
	}
	return nil
}

func readCapped(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}
