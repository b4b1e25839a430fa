// ABOUTME: Sync backend for Google Reader compatible services
// ABOUTME: A full refresh runs as a dependency-ordered queue of named operations

package stream

import (
	"context"
	"strconv"
	"time"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/parse"
	"github.com/harper/reader/internal/queue"
	"github.com/harper/reader/internal/storage"
)

// Backend syncs an account against a Google Reader compatible service.
type Backend struct {
	client *Client
}

var _ account.Backend = (*Backend)(nil)

// New constructs a stream backend for the given endpoint and
// credentials.
func New(endpointURL, username, password string) *Backend {
	return &Backend{client: NewClient(endpointURL, username, password)}
}

// NewWithClient constructs a backend over an existing client.
func NewWithClient(client *Client) *Backend {
	return &Backend{client: client}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if IsAuthError(err) {
		return account.AuthErr(err)
	}
	return account.TransportErr(err)
}

// RefreshAll runs a full sync pass as a queue of operations: structure
// first, then status ingestion and article download, then the pending
// push. Ingestion must complete before the push so reconciliation sees
// the pending set intact.
func (b *Backend) RefreshAll(ctx context.Context, a *account.Account) error {
	q := queue.New()

	q.Add(queue.Operation{
		Name: "sync-structure",
		Run: func(ctx context.Context) error {
			return b.syncStructure(ctx, a)
		},
	})
	q.Add(queue.Operation{
		Name:      "ingest-unread",
		DependsOn: []string{"sync-structure"},
		Run: func(ctx context.Context) error {
			return a.IngestUnreadIDs(ctx, account.IDPagerFunc(func(ctx context.Context, c string) ([]string, string, error) {
				ids, next, err := b.client.UnreadIDs(ctx, c)
				return ids, next, mapErr(err)
			}))
		},
	})
	q.Add(queue.Operation{
		Name:      "ingest-starred",
		DependsOn: []string{"sync-structure"},
		Run: func(ctx context.Context) error {
			return a.IngestStarredIDs(ctx, account.IDPagerFunc(func(ctx context.Context, c string) ([]string, string, error) {
				ids, next, err := b.client.StarredIDs(ctx, c)
				return ids, next, mapErr(err)
			}))
		},
	})
	q.Add(queue.Operation{
		Name:      "download-articles",
		DependsOn: []string{"sync-structure"},
		Run: func(ctx context.Context) error {
			return b.downloadArticles(ctx, a)
		},
	})
	q.Add(queue.Operation{
		Name:      "push-pending",
		DependsOn: []string{"ingest-unread", "ingest-starred"},
		Run: func(ctx context.Context) error {
			return b.pushPending(ctx, a)
		},
	})

	return q.Run(ctx)
}

// syncStructure makes the local feed/folder graph match the service's
// subscription list. The service is authoritative: unknown remote
// subscriptions are adopted, local feeds the service dropped go away.
func (b *Backend) syncStructure(ctx context.Context, a *account.Account) error {
	subs, err := b.client.Subscriptions(ctx)
	if err != nil {
		return mapErr(err)
	}

	remote := make(map[string]bool, len(subs))
	for _, sub := range subs {
		folder := sub.Folder()
		if folder != "" {
			if _, err := a.EnsureFolderLocal(folder); err != nil {
				return err
			}
		}

		externalID := sub.ID
		var name *string
		if sub.Title != "" {
			title := sub.Title
			name = &title
		}
		feed, err := a.AdoptFeed(sub.URL(), &externalID, name, folder)
		if err != nil {
			return err
		}
		remote[feed.ID] = true
	}

	for _, feed := range a.Feeds() {
		if !remote[feed.ID] {
			if err := a.DropFeedLocal(feed.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// downloadArticles pages through reading-list contents newer than the
// checkpoint and ingests them per feed. Article IDs are the service's
// item IDs so status reconciliation lines up. The checkpoint advances
// only after every page persisted.
func (b *Backend) downloadArticles(ctx context.Context, a *account.Account) error {
	checkpoint, err := a.Checkpoint()
	if err != nil {
		return err
	}
	started := time.Now().Unix()

	continuation := ""
	for {
		items, next, err := b.client.StreamContents(ctx, checkpoint, continuation)
		if err != nil {
			return mapErr(err)
		}

		byFeed := make(map[string][]parse.Item)
		for _, item := range items {
			byFeed[item.Origin.StreamID] = append(byFeed[item.Origin.StreamID], streamItem(item))
		}
		for streamID, feedItems := range byFeed {
			feed, ok := a.FeedByExternalID(streamID)
			if !ok {
				// Orphan items from a subscription the list didn't carry
				a.Logger().Debug("skipping items for unknown stream", "stream", streamID, "count", len(feedItems))
				continue
			}
			parsed := &parse.Feed{Items: feedItems}
			if _, err := a.IngestParsedFeed(feed, parsed, storage.UpdateOptions{IDFromGUID: true}); err != nil {
				return err
			}
		}

		if next == "" {
			break
		}
		continuation = next
	}

	return a.SetCheckpoint(strconv.FormatInt(started, 10))
}

func streamItem(item Item) parse.Item {
	p := parse.Item{
		GUID:       ShortItemID(item.ID),
		Title:      item.Title,
		Link:       item.Link(),
		Author:     item.Author,
		Body:       item.Body(),
		Categories: item.Categories,
	}
	if item.Published > 0 {
		t := time.Unix(item.Published, 0)
		p.PublishedAt = &t
	}
	return p
}

func (b *Backend) pushPending(ctx context.Context, a *account.Account) error {
	return b.SyncArticleStatus(ctx, a)
}

// SyncArticleStatus pushes pending read and starred changes as
// edit-tag batches, clearing each batch once the service accepted it.
func (b *Backend) SyncArticleStatus(ctx context.Context, a *account.Account) error {
	pending := a.PendingStatuses()

	push := func(key models.StatusKey, send func(context.Context, []string) error, ids []string) error {
		if len(ids) == 0 {
			return nil
		}
		if err := send(ctx, ids); err != nil {
			return mapErr(err)
		}
		pending.Clear(ids, key)
		return nil
	}

	read, unread := pending.Batches(models.StatusRead)
	if err := push(models.StatusRead, b.client.MarkRead, read); err != nil {
		return err
	}
	if err := push(models.StatusRead, b.client.MarkUnread, unread); err != nil {
		return err
	}

	starred, unstarred := pending.Batches(models.StatusStarred)
	if err := push(models.StatusStarred, b.client.Star, starred); err != nil {
		return err
	}
	return push(models.StatusStarred, b.client.Unstar, unstarred)
}

// CreateFeed subscribes on the service, then reads the subscription
// back to learn its canonical identifiers.
func (b *Backend) CreateFeed(ctx context.Context, a *account.Account, url, name, folder string) (*models.Feed, error) {
	if err := b.client.Subscribe(ctx, url, name, folder); err != nil {
		return nil, mapErr(err)
	}

	feed := models.NewFeed(url)
	feed.Folder = folder
	externalID := "feed/" + url
	feed.ExternalID = &externalID
	if name != "" {
		feed.Name = &name
	}

	subs, err := b.client.Subscriptions(ctx)
	if err != nil {
		// Subscription took; canonical metadata arrives on next refresh
		a.Logger().Debug("read-back after subscribe failed", "err", err)
		return feed, nil
	}
	for _, sub := range subs {
		if sub.URL() == url {
			id := sub.ID
			feed.ExternalID = &id
			if feed.Name == nil && sub.Title != "" {
				title := sub.Title
				feed.Name = &title
			}
			break
		}
	}
	return feed, nil
}

// RemoveFeed unsubscribes on the service.
func (b *Backend) RemoveFeed(ctx context.Context, a *account.Account, feed *models.Feed) error {
	return mapErr(b.client.Unsubscribe(ctx, feed.URL))
}

// RenameFeed retitles the subscription on the service.
func (b *Backend) RenameFeed(ctx context.Context, a *account.Account, feed *models.Feed, name string) error {
	return mapErr(b.client.Retitle(ctx, feed.URL, name))
}

// MoveFeed relabels the subscription on the service.
func (b *Backend) MoveFeed(ctx context.Context, a *account.Account, feed *models.Feed, folder string) error {
	return mapErr(b.client.Relabel(ctx, feed.URL, feed.Folder, folder))
}

// AddFolder is lazy on the service side: labels come into being when a
// subscription first carries them.
func (b *Backend) AddFolder(ctx context.Context, a *account.Account, name string) (*models.Folder, error) {
	return &models.Folder{Name: name}, nil
}

// RenameFolder renames the label on the service.
func (b *Backend) RenameFolder(ctx context.Context, a *account.Account, folder *models.Folder, name string) error {
	return mapErr(b.client.RenameTag(ctx, folder.Name, name))
}

// RemoveFolder disables the label on the service.
func (b *Backend) RemoveFolder(ctx context.Context, a *account.Account, folder *models.Folder) error {
	return mapErr(b.client.DisableTag(ctx, folder.Name))
}
