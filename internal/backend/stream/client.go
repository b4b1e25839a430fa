// ABOUTME: HTTP client for Google Reader compatible sync services
// ABOUTME: ClientLogin auth, continuation-paginated streams, and batched tag edits

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	stateReadingList = "user/-/state/com.google/reading-list"
	stateRead        = "user/-/state/com.google/read"
	stateStarred     = "user/-/state/com.google/starred"
	labelPrefix      = "user/-/label/"

	// editBatchSize bounds the number of item IDs per edit-tag call.
	editBatchSize = 100

	// pageSize is the number of IDs or items requested per page.
	pageSize = 1000
)

// Client talks to a Google Reader compatible endpoint.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu         sync.Mutex
	authToken  string
	writeToken string
}

// NewClient constructs a client for the given endpoint. Credentials
// are exchanged lazily on first use.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// authError marks authentication failures so callers can map them.
type authError struct{ err error }

func (e *authError) Error() string { return e.err.Error() }
func (e *authError) Unwrap() error { return e.err }

// IsAuthError reports whether err came from credential exchange or an
// auth-rejected request.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// login performs ClientLogin and caches the auth token.
func (c *Client) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.authToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	form := url.Values{}
	form.Set("Email", c.username)
	form.Set("Passwd", c.password)

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/accounts/ClientLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &authError{fmt.Errorf("login rejected: status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	for _, line := range strings.Split(string(body), "\n") {
		if rest, ok := strings.CutPrefix(line, "Auth="); ok {
			token = strings.TrimSpace(rest)
			break
		}
	}
	if token == "" {
		return "", &authError{fmt.Errorf("login response carried no Auth token")}
	}

	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
	return token, nil
}

// do issues an authenticated request, decoding a JSON body into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, out interface{}) error {
	token, err := c.login(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if query != nil {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Cached token may be stale; drop it so the next call re-auths
		c.mu.Lock()
		c.authToken = ""
		c.mu.Unlock()
		return &authError{fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// writeTokenValue returns the short-lived token required by edit
// endpoints, fetching one if needed.
func (c *Client) writeTokenValue(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.writeToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	authToken, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/reader/api/0/token", nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch write token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch write token: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
	if err != nil {
		return "", fmt.Errorf("read write token: %w", err)
	}
	token = strings.TrimSpace(string(body))

	c.mu.Lock()
	c.writeToken = token
	c.mu.Unlock()
	return token, nil
}

// Subscription is one remote subscription.
type Subscription struct {
	ID         string `json:"id"` // "feed/<url>"
	Title      string `json:"title"`
	HTMLURL    string `json:"htmlUrl"`
	Categories []struct {
		ID    string `json:"id"` // "user/-/label/<name>"
		Label string `json:"label"`
	} `json:"categories"`
}

// URL strips the "feed/" prefix from the subscription ID.
func (s Subscription) URL() string {
	return strings.TrimPrefix(s.ID, "feed/")
}

// Folder returns the first label, or empty for top-level subscriptions.
func (s Subscription) Folder() string {
	for _, cat := range s.Categories {
		if cat.Label != "" {
			return cat.Label
		}
		if name, ok := strings.CutPrefix(cat.ID, labelPrefix); ok {
			return name
		}
	}
	return ""
}

// Subscriptions fetches the full subscription list.
func (c *Client) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var out struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}
	q := url.Values{"output": {"json"}}
	if err := c.do(ctx, "GET", "/reader/api/0/subscription/list", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

func (c *Client) editSubscription(ctx context.Context, form url.Values) error {
	token, err := c.writeTokenValue(ctx)
	if err != nil {
		return err
	}
	form.Set("T", token)
	return c.do(ctx, "POST", "/reader/api/0/subscription/edit", nil, form, nil)
}

// Subscribe adds a subscription, optionally titled and labeled.
func (c *Client) Subscribe(ctx context.Context, feedURL, title, folder string) error {
	form := url.Values{}
	form.Set("ac", "subscribe")
	form.Set("s", "feed/"+feedURL)
	if title != "" {
		form.Set("t", title)
	}
	if folder != "" {
		form.Set("a", labelPrefix+folder)
	}
	return c.editSubscription(ctx, form)
}

// Unsubscribe removes a subscription.
func (c *Client) Unsubscribe(ctx context.Context, feedURL string) error {
	form := url.Values{}
	form.Set("ac", "unsubscribe")
	form.Set("s", "feed/"+feedURL)
	return c.editSubscription(ctx, form)
}

// Retitle renames a subscription.
func (c *Client) Retitle(ctx context.Context, feedURL, title string) error {
	form := url.Values{}
	form.Set("ac", "edit")
	form.Set("s", "feed/"+feedURL)
	form.Set("t", title)
	return c.editSubscription(ctx, form)
}

// Relabel moves a subscription between labels. Empty strings mean the
// top level.
func (c *Client) Relabel(ctx context.Context, feedURL, fromFolder, toFolder string) error {
	form := url.Values{}
	form.Set("ac", "edit")
	form.Set("s", "feed/"+feedURL)
	if toFolder != "" {
		form.Set("a", labelPrefix+toFolder)
	}
	if fromFolder != "" {
		form.Set("r", labelPrefix+fromFolder)
	}
	return c.editSubscription(ctx, form)
}

// RenameTag renames a label across every subscription carrying it.
func (c *Client) RenameTag(ctx context.Context, from, to string) error {
	token, err := c.writeTokenValue(ctx)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("s", labelPrefix+from)
	form.Set("dest", labelPrefix+to)
	form.Set("T", token)
	return c.do(ctx, "POST", "/reader/api/0/rename-tag", nil, form, nil)
}

// DisableTag removes a label; its subscriptions become top-level.
func (c *Client) DisableTag(ctx context.Context, name string) error {
	token, err := c.writeTokenValue(ctx)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("s", labelPrefix+name)
	form.Set("T", token)
	return c.do(ctx, "POST", "/reader/api/0/disable-tag", nil, form, nil)
}

// UnreadIDs returns one page of unread item IDs in short form, plus
// the continuation for the next page.
func (c *Client) UnreadIDs(ctx context.Context, continuation string) ([]string, string, error) {
	return c.itemIDs(ctx, stateReadingList, stateRead, continuation)
}

// StarredIDs returns one page of starred item IDs.
func (c *Client) StarredIDs(ctx context.Context, continuation string) ([]string, string, error) {
	return c.itemIDs(ctx, stateStarred, "", continuation)
}

func (c *Client) itemIDs(ctx context.Context, stream, exclude, continuation string) ([]string, string, error) {
	q := url.Values{}
	q.Set("s", stream)
	q.Set("n", strconv.Itoa(pageSize))
	q.Set("output", "json")
	if exclude != "" {
		q.Set("xt", exclude)
	}
	if continuation != "" {
		q.Set("c", continuation)
	}

	var out struct {
		ItemRefs []struct {
			ID string `json:"id"`
		} `json:"itemRefs"`
		Continuation string `json:"continuation"`
	}
	if err := c.do(ctx, "GET", "/reader/api/0/stream/items/ids", q, nil, &out); err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(out.ItemRefs))
	for _, ref := range out.ItemRefs {
		ids = append(ids, ShortItemID(ref.ID))
	}
	return ids, out.Continuation, nil
}

// Item is one article in a stream contents response.
type Item struct {
	ID        string `json:"id"` // long form
	Title     string `json:"title"`
	Published int64  `json:"published"`
	Author    string `json:"author"`
	Canonical []struct {
		HRef string `json:"href"`
	} `json:"canonical"`
	Alternate []struct {
		HRef string `json:"href"`
	} `json:"alternate"`
	Summary struct {
		Content string `json:"content"`
	} `json:"summary"`
	Content struct {
		Content string `json:"content"`
	} `json:"content"`
	Origin struct {
		StreamID string `json:"streamId"` // "feed/<url>"
		Title    string `json:"title"`
	} `json:"origin"`
	Categories []string `json:"categories"`
}

// Link returns the item's permalink, preferring the canonical form.
func (i Item) Link() string {
	if len(i.Canonical) > 0 {
		return i.Canonical[0].HRef
	}
	if len(i.Alternate) > 0 {
		return i.Alternate[0].HRef
	}
	return ""
}

// Body returns the item content, falling back to the summary.
func (i Item) Body() string {
	if i.Content.Content != "" {
		return i.Content.Content
	}
	return i.Summary.Content
}

// StreamContents returns one page of reading-list items newer than the
// checkpoint (a unix timestamp string; "0" means everything).
func (c *Client) StreamContents(ctx context.Context, checkpoint, continuation string) ([]Item, string, error) {
	q := url.Values{}
	q.Set("n", strconv.Itoa(pageSize))
	q.Set("output", "json")
	if checkpoint != "" && checkpoint != "0" {
		q.Set("ot", checkpoint)
	}
	if continuation != "" {
		q.Set("c", continuation)
	}

	var out struct {
		Items        []Item `json:"items"`
		Continuation string `json:"continuation"`
	}
	path := "/reader/api/0/stream/contents/" + stateReadingList
	if err := c.do(ctx, "GET", path, q, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Items, out.Continuation, nil
}

// EditTag adds or removes a state tag on a batch of short-form item
// IDs, splitting into service-sized chunks.
func (c *Client) EditTag(ctx context.Context, ids []string, tag string, add bool) error {
	token, err := c.writeTokenValue(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += editBatchSize {
		end := start + editBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		form := url.Values{}
		for _, id := range ids[start:end] {
			form.Add("i", LongItemID(id))
		}
		if add {
			form.Set("a", tag)
		} else {
			form.Set("r", tag)
		}
		form.Set("T", token)
		if err := c.do(ctx, "POST", "/reader/api/0/edit-tag", nil, form, nil); err != nil {
			return err
		}
	}
	return nil
}

// MarkRead flags items as read on the service.
func (c *Client) MarkRead(ctx context.Context, ids []string) error {
	return c.EditTag(ctx, ids, stateRead, true)
}

// MarkUnread clears the read flag on the service.
func (c *Client) MarkUnread(ctx context.Context, ids []string) error {
	return c.EditTag(ctx, ids, stateRead, false)
}

// Star flags items as starred on the service.
func (c *Client) Star(ctx context.Context, ids []string) error {
	return c.EditTag(ctx, ids, stateStarred, true)
}

// Unstar clears the starred flag on the service.
func (c *Client) Unstar(ctx context.Context, ids []string) error {
	return c.EditTag(ctx, ids, stateStarred, false)
}

const longIDPrefix = "tag:google.com,2005:reader/item/"

// ShortItemID normalizes an item ID to its short decimal form. Long
// tag-form IDs carry the number as 16 hex digits; short IDs pass
// through unchanged.
func ShortItemID(id string) string {
	hex, ok := strings.CutPrefix(id, longIDPrefix)
	if !ok {
		return id
	}
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return id
	}
	return strconv.FormatInt(int64(n), 10)
}

// LongItemID converts a short decimal item ID to the tag form used by
// edit endpoints. IDs already in long form pass through unchanged.
func LongItemID(id string) string {
	if strings.HasPrefix(id, longIDPrefix) {
		return id
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return id
	}
	return fmt.Sprintf("%s%016x", longIDPrefix, uint64(n))
}
