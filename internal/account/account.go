// ABOUTME: Account aggregate owning the feed/folder graph, unread index, and pending set
// ABOUTME: Single logical owner per account; network work happens off-lock and marshals back

package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/harper/reader/internal/filter"
	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/opml"
	"github.com/harper/reader/internal/parse"
	"github.com/harper/reader/internal/storage"
)

const (
	stateCheckpoint = "last_fetch"
	stateFolders    = "folders"
)

// Backend converts account-level sync intents into backend-specific
// operations. One implementation is bound per account at construction
// time, selected by account type, and never re-selected.
type Backend interface {
	// RefreshAll performs a full sync pass: ingestion of remote state
	// first, then pushing local pending changes.
	RefreshAll(ctx context.Context, a *Account) error

	// SyncArticleStatus pushes only the pending status set. It does
	// not re-ingest remote article content.
	SyncArticleStatus(ctx context.Context, a *Account) error

	// CreateFeed performs the backend-side work of subscribing and
	// returns the populated feed. Local persistence is the account's
	// job.
	CreateFeed(ctx context.Context, a *Account, url, name, folder string) (*models.Feed, error)

	// RemoveFeed unsubscribes on the backend side.
	RemoveFeed(ctx context.Context, a *Account, feed *models.Feed) error

	// RenameFeed renames on the backend side.
	RenameFeed(ctx context.Context, a *Account, feed *models.Feed, name string) error

	// MoveFeed moves a feed between containers on the backend side.
	MoveFeed(ctx context.Context, a *Account, feed *models.Feed, folder string) error

	// AddFolder creates a folder on the backend side.
	AddFolder(ctx context.Context, a *Account, name string) (*models.Folder, error)

	// RenameFolder renames a folder on the backend side.
	RenameFolder(ctx context.Context, a *Account, folder *models.Folder, name string) error

	// RemoveFolder removes a folder on the backend side.
	RemoveFolder(ctx context.Context, a *Account, folder *models.Folder) error
}

// Account is the top-level aggregate for one configured account.
type Account struct {
	meta    models.AccountMeta
	store   storage.Store
	backend Backend
	filter  filter.ItemFilter
	logger  *log.Logger

	bus     *Bus
	pending *PendingStatuses
	index   *UnreadIndex

	mu             sync.Mutex
	feeds          map[string]*models.Feed   // by feed ID
	folders        map[string]*models.Folder // by name
	structureDirty bool
	byExternalID   map[string]*models.Feed // lazy, rebuilt when dirty
	byURL          map[string]*models.Feed // lazy, rebuilt when dirty

	refreshing atomic.Bool
	importing  atomic.Bool
}

// New constructs an account over an opened store, loading the
// persisted feed/folder graph. Bind a backend with SetBackend before
// any sync call.
func New(meta models.AccountMeta, store storage.Store, logger *log.Logger) (*Account, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	a := &Account{
		meta:    meta,
		store:   store,
		filter:  filter.NewBlocklist(meta.BlockTerms),
		logger:  logger.With("account", meta.ID),
		bus:     &Bus{},
		pending: NewPendingStatuses(),
		index:   NewUnreadIndex(),
		feeds:   make(map[string]*models.Feed),
		folders: make(map[string]*models.Folder),
	}

	feeds, err := store.ListFeeds()
	if err != nil {
		return nil, StoreErr(fmt.Errorf("load feeds: %w", err))
	}
	for _, f := range feeds {
		a.feeds[f.ID] = f
	}

	if err := a.loadFolders(); err != nil {
		return nil, err
	}
	a.structureDirty = true

	return a, nil
}

// SetBackend binds the sync backend. Called exactly once, right after
// construction.
func (a *Account) SetBackend(b Backend) {
	a.backend = b
}

// SetItemFilter replaces the pre-ingestion item filter.
func (a *Account) SetItemFilter(f filter.ItemFilter) {
	if f != nil {
		a.filter = f
	}
}

// ID returns the immutable account identifier.
func (a *Account) ID() string { return a.meta.ID }

// Type returns the account's backend kind.
func (a *Account) Type() models.AccountType { return a.meta.Type }

// Name returns the account's display name.
func (a *Account) Name() string { return a.meta.Name }

// Active reports whether the account participates in refresh-all.
func (a *Account) Active() bool { return a.meta.Active }

// Meta returns a copy of the persisted account metadata.
func (a *Account) Meta() models.AccountMeta { return a.meta }

// Store exposes the account's article store to its backend.
func (a *Account) Store() storage.Store { return a.store }

// Events returns the account's event bus.
func (a *Account) Events() *Bus { return a.bus }

// UnreadIndex returns the account's unread-count index.
func (a *Account) UnreadIndex() *UnreadIndex { return a.index }

// Logger returns the account-scoped logger.
func (a *Account) Logger() *log.Logger { return a.logger }

func (a *Account) remote() bool {
	return a.meta.Type != models.AccountLocal
}

// Structure

// Feeds returns all feeds, newest first.
func (a *Account) Feeds() []*models.Feed {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*models.Feed, 0, len(a.feeds))
	for _, f := range a.feeds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Folders returns all folders sorted by name.
func (a *Account) Folders() []*models.Folder {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*models.Folder, 0, len(a.folders))
	for _, f := range a.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FeedsInFolder returns the feeds owned by the named folder; an empty
// name means the account's top level.
func (a *Account) FeedsInFolder(name string) []*models.Feed {
	var out []*models.Feed
	for _, f := range a.Feeds() {
		if f.Folder == name {
			out = append(out, f)
		}
	}
	return out
}

// FeedByID returns a feed by its stable ID.
func (a *Account) FeedByID(id string) (*models.Feed, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.feeds[id]
	return f, ok
}

// FeedByURL returns a feed by its URL.
func (a *Account) FeedByURL(url string) (*models.Feed, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rebuildCachesLocked()
	f, ok := a.byURL[url]
	return f, ok
}

// FeedByExternalID returns a feed by its backend-native identifier.
func (a *Account) FeedByExternalID(externalID string) (*models.Feed, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rebuildCachesLocked()
	f, ok := a.byExternalID[externalID]
	return f, ok
}

// rebuildCachesLocked recomputes the derived lookup maps on first
// access after a structural mutation. Callers hold a.mu.
func (a *Account) rebuildCachesLocked() {
	if !a.structureDirty {
		return
	}
	a.byExternalID = make(map[string]*models.Feed, len(a.feeds))
	a.byURL = make(map[string]*models.Feed, len(a.feeds))
	for _, f := range a.feeds {
		a.byURL[f.URL] = f
		if f.ExternalID != nil {
			a.byExternalID[*f.ExternalID] = f
		}
	}
	a.structureDirty = false
}

func (a *Account) structureDidChange() {
	a.mu.Lock()
	a.structureDirty = true
	a.mu.Unlock()
	a.bus.publish(StructureChanged{})
}

// AddFeed subscribes to a feed, placing it at the top level or in the
// named folder. Subscribing to an already-present URL returns the
// existing feed silently.
func (a *Account) AddFeed(ctx context.Context, url, name, folderName string) (*models.Feed, error) {
	if existing, ok := a.FeedByURL(url); ok {
		return existing, nil
	}
	if folderName != "" {
		if _, err := a.EnsureFolder(ctx, folderName); err != nil {
			return nil, err
		}
	}

	feed, err := a.backend.CreateFeed(ctx, a, url, name, folderName)
	if err != nil {
		return nil, err
	}

	if err := a.store.CreateFeed(feed); err != nil {
		return nil, StoreErr(fmt.Errorf("persist feed: %w", err))
	}

	a.mu.Lock()
	a.feeds[feed.ID] = feed
	a.mu.Unlock()
	a.structureDidChange()
	a.logger.Debug("feed added", "url", url, "folder", folderName)
	return feed, nil
}

// RemoveFeed unsubscribes from a feed. Removing an unknown feed is a
// silent no-op.
func (a *Account) RemoveFeed(ctx context.Context, feedID string) error {
	feed, ok := a.FeedByID(feedID)
	if !ok {
		return nil
	}
	if err := a.backend.RemoveFeed(ctx, a, feed); err != nil {
		return err
	}
	if err := a.store.DeleteFeed(feed.ID); err != nil {
		return StoreErr(fmt.Errorf("delete feed: %w", err))
	}

	a.mu.Lock()
	delete(a.feeds, feed.ID)
	a.mu.Unlock()
	a.index.Remove(feed.ID)
	a.structureDidChange()
	return nil
}

// RenameFeed renames a feed.
func (a *Account) RenameFeed(ctx context.Context, feedID, name string) error {
	feed, ok := a.FeedByID(feedID)
	if !ok {
		return fmt.Errorf("feed %s: %w", feedID, storage.ErrNotFound)
	}
	if err := a.backend.RenameFeed(ctx, a, feed, name); err != nil {
		return err
	}
	feed.Name = &name
	if err := a.store.UpdateFeed(feed); err != nil {
		return StoreErr(fmt.Errorf("persist feed rename: %w", err))
	}
	a.structureDidChange()
	return nil
}

// MoveFeed moves a feed to the named folder, or to the top level when
// the name is empty.
func (a *Account) MoveFeed(ctx context.Context, feedID, folderName string) error {
	feed, ok := a.FeedByID(feedID)
	if !ok {
		return fmt.Errorf("feed %s: %w", feedID, storage.ErrNotFound)
	}
	if folderName != "" {
		if _, err := a.EnsureFolder(ctx, folderName); err != nil {
			return err
		}
	}
	if err := a.backend.MoveFeed(ctx, a, feed, folderName); err != nil {
		return err
	}
	feed.Folder = folderName
	if err := a.store.UpdateFeed(feed); err != nil {
		return StoreErr(fmt.Errorf("persist feed move: %w", err))
	}
	a.structureDidChange()
	return nil
}

// EnsureFolder returns the named folder, creating it if needed.
// A duplicate name resolves silently to the existing folder.
func (a *Account) EnsureFolder(ctx context.Context, name string) (*models.Folder, error) {
	a.mu.Lock()
	existing, ok := a.folders[name]
	a.mu.Unlock()
	if ok {
		return existing, nil
	}
	return a.AddFolder(ctx, name)
}

// AddFolder creates a folder. Creating a folder that already exists
// resolves silently to the existing one.
func (a *Account) AddFolder(ctx context.Context, name string) (*models.Folder, error) {
	a.mu.Lock()
	existing, ok := a.folders[name]
	a.mu.Unlock()
	if ok {
		return existing, nil
	}

	folder, err := a.backend.AddFolder(ctx, a, name)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.folders[folder.Name] = folder
	a.mu.Unlock()
	if err := a.saveFolders(); err != nil {
		return nil, err
	}
	a.structureDidChange()
	return folder, nil
}

// RenameFolder renames a folder and updates its feeds' container.
func (a *Account) RenameFolder(ctx context.Context, oldName, newName string) error {
	a.mu.Lock()
	folder, ok := a.folders[oldName]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("folder %s: %w", oldName, storage.ErrNotFound)
	}
	if err := a.backend.RenameFolder(ctx, a, folder, newName); err != nil {
		return err
	}

	a.mu.Lock()
	delete(a.folders, oldName)
	folder.Name = newName
	a.folders[newName] = folder
	var move []*models.Feed
	for _, f := range a.feeds {
		if f.Folder == oldName {
			f.Folder = newName
			move = append(move, f)
		}
	}
	a.mu.Unlock()

	for _, f := range move {
		if err := a.store.UpdateFeed(f); err != nil {
			return StoreErr(fmt.Errorf("persist folder rename: %w", err))
		}
	}
	if err := a.saveFolders(); err != nil {
		return err
	}
	a.structureDidChange()
	return nil
}

// RemoveFolder removes a folder; its feeds move to the top level.
// Removing an unknown folder is a silent no-op.
func (a *Account) RemoveFolder(ctx context.Context, name string) error {
	a.mu.Lock()
	folder, ok := a.folders[name]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	if err := a.backend.RemoveFolder(ctx, a, folder); err != nil {
		return err
	}

	a.mu.Lock()
	delete(a.folders, name)
	var orphaned []*models.Feed
	for _, f := range a.feeds {
		if f.Folder == name {
			f.Folder = ""
			orphaned = append(orphaned, f)
		}
	}
	a.mu.Unlock()

	for _, f := range orphaned {
		if err := a.store.UpdateFeed(f); err != nil {
			return StoreErr(fmt.Errorf("persist folder removal: %w", err))
		}
	}
	if err := a.saveFolders(); err != nil {
		return err
	}
	a.structureDidChange()
	return nil
}

// SetFolderSyncPaused toggles refresh participation for a folder's
// feeds.
func (a *Account) SetFolderSyncPaused(name string, paused bool) error {
	a.mu.Lock()
	folder, ok := a.folders[name]
	if ok {
		folder.SyncPaused = paused
	}
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("folder %s: %w", name, storage.ErrNotFound)
	}
	return a.saveFolders()
}

// AdoptFeed applies remotely-originated feed state without a backend
// round trip: the feed is created if unknown, otherwise its name,
// folder, and external ID are updated in place. Returns the local feed.
func (a *Account) AdoptFeed(url string, externalID, name *string, folderName string) (*models.Feed, error) {
	if existing, ok := a.FeedByURL(url); ok {
		changed := false
		if externalID != nil && (existing.ExternalID == nil || *existing.ExternalID != *externalID) {
			existing.ExternalID = externalID
			changed = true
		}
		if name != nil && *name != "" && (existing.Name == nil || *existing.Name != *name) {
			existing.Name = name
			changed = true
		}
		if existing.Folder != folderName {
			existing.Folder = folderName
			changed = true
		}
		if changed {
			if err := a.store.UpdateFeed(existing); err != nil {
				return nil, StoreErr(fmt.Errorf("persist adopted feed: %w", err))
			}
			a.structureDidChange()
		}
		return existing, nil
	}

	feed := models.NewFeed(url)
	feed.ExternalID = externalID
	feed.Name = name
	feed.Folder = folderName
	if err := a.store.CreateFeed(feed); err != nil {
		return nil, StoreErr(fmt.Errorf("persist adopted feed: %w", err))
	}
	a.mu.Lock()
	a.feeds[feed.ID] = feed
	a.mu.Unlock()
	a.structureDidChange()
	return feed, nil
}

// DropFeedLocal removes a feed locally without a backend round trip,
// for feeds the remote no longer reports.
func (a *Account) DropFeedLocal(feedID string) error {
	a.mu.Lock()
	_, ok := a.feeds[feedID]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	if err := a.store.DeleteFeed(feedID); err != nil {
		return StoreErr(fmt.Errorf("delete feed: %w", err))
	}
	a.mu.Lock()
	delete(a.feeds, feedID)
	a.mu.Unlock()
	a.index.Remove(feedID)
	a.structureDidChange()
	return nil
}

// EnsureFolderLocal registers a remotely-originated folder without a
// backend round trip.
func (a *Account) EnsureFolderLocal(name string) (*models.Folder, error) {
	a.mu.Lock()
	existing, ok := a.folders[name]
	if ok {
		a.mu.Unlock()
		return existing, nil
	}
	folder := &models.Folder{Name: name}
	a.folders[name] = folder
	a.mu.Unlock()
	if err := a.saveFolders(); err != nil {
		return nil, err
	}
	a.structureDidChange()
	return folder, nil
}

type folderState struct {
	Name       string  `json:"name"`
	ExternalID *string `json:"external_id,omitempty"`
	SyncPaused bool    `json:"sync_paused,omitempty"`
}

func (a *Account) loadFolders() error {
	raw, err := a.store.GetState(stateFolders, "[]")
	if err != nil {
		return StoreErr(fmt.Errorf("load folders: %w", err))
	}
	var states []folderState
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		return fmt.Errorf("decode folders: %w", err)
	}
	for _, st := range states {
		a.folders[st.Name] = &models.Folder{
			Name:       st.Name,
			ExternalID: st.ExternalID,
			SyncPaused: st.SyncPaused,
		}
	}
	return nil
}

func (a *Account) saveFolders() error {
	a.mu.Lock()
	states := make([]folderState, 0, len(a.folders))
	for _, f := range a.folders {
		states = append(states, folderState{Name: f.Name, ExternalID: f.ExternalID, SyncPaused: f.SyncPaused})
	}
	a.mu.Unlock()
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })

	raw, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("encode folders: %w", err)
	}
	if err := a.store.SetState(stateFolders, string(raw)); err != nil {
		return StoreErr(fmt.Errorf("save folders: %w", err))
	}
	return nil
}

// Status

// Mark sets a status flag on the given articles. It is idempotent:
// only IDs whose persisted value actually changed are reported, enter
// the pending set (for remote-backed accounts), and appear in the
// emitted event. An empty diff emits nothing.
func (a *Account) Mark(articleIDs []string, key models.StatusKey, flag bool) ([]string, error) {
	changed, err := a.store.MarkArticles(articleIDs, key, flag)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("mark articles: %w", err))
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if a.remote() {
		a.pending.Add(changed, key, flag)
	}
	a.applyStatusChange(changed, key, flag)
	return changed, nil
}

// PendingStatuses exposes the pending overlay to the account's backend.
func (a *Account) PendingStatuses() *PendingStatuses {
	return a.pending
}

// applyStatusChange updates the unread index and publishes events for
// a batch of actually-changed IDs. The delivered set is scanned once
// and grouped by feed, so the work is proportional to the number of
// articles, not feeds times articles. Index updates happen only after
// the store write was confirmed by the caller.
func (a *Account) applyStatusChange(changed []string, key models.StatusKey, flag bool) {
	if len(changed) == 0 {
		return
	}

	feedFor, err := a.store.FeedIDsForArticles(changed)
	if err != nil {
		a.logger.Error("group status change by feed", "err", err)
		feedFor = map[string]string{}
	}

	// Single pass over the delivered articles
	perFeed := make(map[string]int)
	for _, id := range changed {
		if feedID, ok := feedFor[id]; ok {
			perFeed[feedID]++
		}
	}

	feedIDs := make([]string, 0, len(perFeed))
	for feedID := range perFeed {
		feedIDs = append(feedIDs, feedID)
	}
	sort.Strings(feedIDs)

	a.bus.publish(StatusesChanged{ArticleIDs: changed, FeedIDs: feedIDs, Key: key, Flag: flag})

	if key != models.StatusRead {
		return
	}

	var countChanged []string
	for _, feedID := range feedIDs {
		delta := perFeed[feedID]
		if flag {
			delta = -delta
		}
		if a.index.Set(feedID, a.index.Count(feedID)+delta) {
			countChanged = append(countChanged, feedID)
		}
	}
	if len(countChanged) > 0 {
		a.bus.publish(UnreadCountsChanged{FeedIDs: countChanged})
	}
}

// UpdateUnreadCounts re-validates cached unread counts for the given
// feeds, choosing the strategy by cardinality: one feed gets a direct
// count query, a small set gets one batched query, and anything larger
// triggers a full index rebuild.
func (a *Account) UpdateUnreadCounts(feedIDs []string) error {
	switch {
	case len(feedIDs) == 0:
		return nil
	case len(feedIDs) == 1:
		n, err := a.store.CountUnread(&feedIDs[0])
		if err != nil {
			return StoreErr(fmt.Errorf("count unread: %w", err))
		}
		if a.index.Set(feedIDs[0], n) {
			a.bus.publish(UnreadCountsChanged{FeedIDs: feedIDs})
		}
		return nil
	case len(feedIDs) < 10:
		counts, err := a.store.UnreadCounts(feedIDs)
		if err != nil {
			return StoreErr(fmt.Errorf("unread counts: %w", err))
		}
		var changed []string
		for feedID, n := range counts {
			if a.index.Set(feedID, n) {
				changed = append(changed, feedID)
			}
		}
		if len(changed) > 0 {
			sort.Strings(changed)
			a.bus.publish(UnreadCountsChanged{FeedIDs: changed})
		}
		return nil
	default:
		return a.RebuildUnreadIndex()
	}
}

// RebuildUnreadIndex replaces the index with authoritative store
// counts. Incremental aggregate recomputation is suppressed while the
// rebuild is in flight.
func (a *Account) RebuildUnreadIndex() error {
	a.index.BeginRebuild()
	counts, err := a.store.AllUnreadCounts()
	if err != nil {
		a.index.CancelRebuild()
		return StoreErr(fmt.Errorf("rebuild unread index: %w", err))
	}
	changed := a.index.FinishRebuild(counts)
	if len(changed) > 0 {
		sort.Strings(changed)
		a.bus.publish(UnreadCountsChanged{FeedIDs: changed})
	}
	return nil
}

// Sync

// RefreshAll performs a full sync pass via the bound backend. A second
// call while one is in flight is rejected; callers serialize refreshes.
func (a *Account) RefreshAll(ctx context.Context) error {
	if !a.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer a.refreshing.Store(false)

	a.bus.publish(RefreshBegan{})
	a.logger.Info("refresh started")
	err := a.backend.RefreshAll(ctx, a)
	if err != nil {
		a.logger.Warn("refresh failed", "err", err)
	} else {
		a.logger.Info("refresh finished")
	}
	a.bus.publish(RefreshEnded{Err: err})
	return err
}

// SyncArticleStatus pushes only the pending status set.
func (a *Account) SyncArticleStatus(ctx context.Context) error {
	return a.backend.SyncArticleStatus(ctx, a)
}

// IngestParsedFeed applies freshly parsed feed content to the store:
// the configured item filter runs first, then an upsert-by-diff
// update. New and updated articles are published, and the feed's
// unread count is re-validated.
func (a *Account) IngestParsedFeed(feed *models.Feed, parsed *parse.Feed, opts storage.UpdateOptions) (*storage.ArticleChanges, error) {
	filtered := a.filter.Filter(parsed)

	changes, err := a.store.UpdateArticles(feed.ID, filtered.Items, opts)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("update articles: %w", err))
	}

	// Backfill feed metadata from the parsed content
	metaChanged := false
	if (feed.Name == nil || *feed.Name == "") && filtered.Title != "" {
		title := filtered.Title
		feed.Name = &title
		metaChanged = true
	}
	if (feed.HomePageURL == nil || *feed.HomePageURL == "") && filtered.HomePageURL != "" {
		home := filtered.HomePageURL
		feed.HomePageURL = &home
		metaChanged = true
	}
	if metaChanged {
		if err := a.store.UpdateFeed(feed); err != nil {
			return nil, StoreErr(fmt.Errorf("persist feed metadata: %w", err))
		}
	}

	if len(changes.New) > 0 || len(changes.Updated) > 0 {
		a.bus.publish(ArticlesDownloaded{FeedID: feed.ID, New: changes.New, Updated: changes.Updated})
	}
	if len(changes.New) > 0 || len(changes.Deleted) > 0 {
		if err := a.UpdateUnreadCounts([]string{feed.ID}); err != nil {
			return changes, err
		}
	}
	return changes, nil
}

// Checkpoint returns the persisted last-fetch checkpoint ("0" when
// never synced).
func (a *Account) Checkpoint() (string, error) {
	v, err := a.store.GetState(stateCheckpoint, "0")
	if err != nil {
		return "", StoreErr(fmt.Errorf("read checkpoint: %w", err))
	}
	return v, nil
}

// SetCheckpoint advances the last-fetch checkpoint. Never call this
// after a store write failure: un-persisted articles must be re-fetched.
func (a *Account) SetCheckpoint(v string) error {
	if err := a.store.SetState(stateCheckpoint, v); err != nil {
		return StoreErr(fmt.Errorf("write checkpoint: %w", err))
	}
	return nil
}

// ResetCheckpoint clears the checkpoint so the next refresh captures
// full history.
func (a *Account) ResetCheckpoint() error {
	return a.SetCheckpoint("0")
}

// ImportOPML bulk-creates feeds and folders from a parsed OPML
// document. A second import while one runs is rejected outright. For
// remote-backed accounts the checkpoint is reset afterwards so the
// next refresh captures full history for the new feeds.
func (a *Account) ImportOPML(ctx context.Context, doc *opml.Document) (added int, err error) {
	if !a.importing.CompareAndSwap(false, true) {
		return 0, ErrImportInProgress
	}
	defer a.importing.Store(false)

	for _, f := range doc.AllFeeds() {
		if _, ok := a.FeedByURL(f.URL); ok {
			continue
		}
		if _, err := a.AddFeed(ctx, f.URL, f.Title, f.Folder); err != nil {
			return added, fmt.Errorf("import %s: %w", f.URL, err)
		}
		added++
	}

	if a.remote() {
		if err := a.ResetCheckpoint(); err != nil {
			return added, err
		}
	}
	return added, nil
}
