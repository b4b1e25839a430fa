// ABOUTME: Local backend fetching feeds directly over HTTP with conditional requests
// ABOUTME: No remote service; statuses live only in the local store

package backend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/fetch"
	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/parse"
	"github.com/harper/reader/internal/storage"
)

// Local syncs an account by polling each feed URL directly.
type Local struct {
	// Parallelism bounds concurrent feed fetches. Zero means the
	// default of 5.
	Parallelism int
}

var _ account.Backend = (*Local)(nil)

// NewLocal constructs a Local backend.
func NewLocal() *Local {
	return &Local{}
}

// RefreshAll fetches every feed, parses what changed, and ingests the
// results. Feeds in sync-paused folders are skipped. Individual feed
// failures are recorded on the feed and don't stop the pass.
func (b *Local) RefreshAll(ctx context.Context, a *account.Account) error {
	paused := make(map[string]bool)
	for _, folder := range a.Folders() {
		if folder.SyncPaused {
			paused[folder.Name] = true
		}
	}

	limit := b.Parallelism
	if limit <= 0 {
		limit = 5
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, feed := range a.Feeds() {
		if feed.Folder != "" && paused[feed.Folder] {
			continue
		}
		g.Go(func() error {
			if err := b.refreshFeed(ctx, a, feed); err != nil {
				a.Logger().Warn("feed refresh failed", "url", feed.URL, "err", err)
				if serr := a.Store().UpdateFeedError(feed.ID, err.Error()); serr != nil {
					return account.StoreErr(fmt.Errorf("record feed error: %w", serr))
				}
			}
			return ctx.Err()
		})
	}
	return g.Wait()
}

func (b *Local) refreshFeed(ctx context.Context, a *account.Account, feed *models.Feed) error {
	result, err := fetch.Fetch(ctx, feed.URL, fetch.Conditional{ETag: feed.ETag, LastModified: feed.LastModified})
	if err != nil {
		return account.TransportErr(err)
	}

	now := time.Now()
	if result.NotModified {
		if err := a.Store().UpdateFeedFetchState(feed.ID, feed.ETag, feed.LastModified, now); err != nil {
			return account.StoreErr(fmt.Errorf("update fetch state: %w", err))
		}
		return nil
	}

	parsed, err := parse.Parse(result.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", feed.URL, err)
	}

	if _, err := a.IngestParsedFeed(feed, parsed, storage.UpdateOptions{}); err != nil {
		return err
	}

	feed.SetCacheHeaders(result.ETag, result.LastModified)
	if err := a.Store().UpdateFeedFetchState(feed.ID, feed.ETag, feed.LastModified, now); err != nil {
		return account.StoreErr(fmt.Errorf("update fetch state: %w", err))
	}
	return nil
}

// SyncArticleStatus is a no-op: a local account has no remote replica.
func (b *Local) SyncArticleStatus(ctx context.Context, a *account.Account) error {
	return nil
}

// CreateFeed validates the URL by fetching and parsing it, and
// populates the feed's metadata from the document.
func (b *Local) CreateFeed(ctx context.Context, a *account.Account, url, name, folder string) (*models.Feed, error) {
	result, err := fetch.Fetch(ctx, url, fetch.Conditional{})
	if err != nil {
		return nil, account.TransportErr(err)
	}
	parsed, err := parse.Parse(result.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	// No cache validators yet: the first refresh must see a full
	// response to ingest the articles.
	feed := models.NewFeed(url)
	feed.Folder = folder
	if name != "" {
		feed.Name = &name
	} else if parsed.Title != "" {
		title := parsed.Title
		feed.Name = &title
	}
	if parsed.HomePageURL != "" {
		home := parsed.HomePageURL
		feed.HomePageURL = &home
	}
	return feed, nil
}

// RemoveFeed has no backend side for a local account.
func (b *Local) RemoveFeed(ctx context.Context, a *account.Account, feed *models.Feed) error {
	return nil
}

// RenameFeed has no backend side for a local account.
func (b *Local) RenameFeed(ctx context.Context, a *account.Account, feed *models.Feed, name string) error {
	return nil
}

// MoveFeed has no backend side for a local account.
func (b *Local) MoveFeed(ctx context.Context, a *account.Account, feed *models.Feed, folder string) error {
	return nil
}

// AddFolder creates a folder record; local folders are purely
// organizational.
func (b *Local) AddFolder(ctx context.Context, a *account.Account, name string) (*models.Folder, error) {
	return &models.Folder{Name: name}, nil
}

// RenameFolder has no backend side for a local account.
func (b *Local) RenameFolder(ctx context.Context, a *account.Account, folder *models.Folder, name string) error {
	return nil
}

// RemoveFolder has no backend side for a local account.
func (b *Local) RemoveFolder(ctx context.Context, a *account.Account, folder *models.Folder) error {
	return nil
}
