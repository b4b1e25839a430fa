// ABOUTME: Cloud backend replicating subscriptions and statuses through Charm KV
// ABOUTME: Content still fetches over HTTP; the replica carries structure and flags

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/charm/kv"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/models"
)

const (
	subPrefix    = "sub:"
	statePrefix  = "state:"
	folderPrefix = "folder:"

	defaultCharmHost = "charm.2389.dev"
	cloudDBName      = "reader"
)

// KVTx is the slice of the Charm KV transaction surface the backend
// uses. *kv.KV satisfies it.
type KVTx interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
}

// KVStore opens short-lived transactions against a replicated KV
// database.
type KVStore interface {
	Do(fn func(tx KVTx) error) error
	DoReadOnly(fn func(tx KVTx) error) error
}

// CharmKV backs KVStore with the Charm cloud. Each operation opens the
// database, runs, syncs, and closes, avoiding lock contention with
// other processes sharing the replica.
type CharmKV struct {
	dbName string
}

var _ KVStore = (*CharmKV)(nil)

// NewCharmKV constructs a Charm-backed KV store, pointing at the
// default host unless CHARM_HOST is set.
func NewCharmKV() *CharmKV {
	if os.Getenv("CHARM_HOST") == "" {
		os.Setenv("CHARM_HOST", defaultCharmHost)
	}
	return &CharmKV{dbName: cloudDBName}
}

func (c *CharmKV) Do(fn func(tx KVTx) error) error {
	db, err := kv.OpenWithDefaults(c.dbName)
	if err != nil {
		return fmt.Errorf("open kv %s: %w", c.dbName, err)
	}
	defer db.Close()
	if err := fn(db); err != nil {
		return err
	}
	return db.Sync()
}

func (c *CharmKV) DoReadOnly(fn func(tx KVTx) error) error {
	db, err := kv.OpenWithDefaults(c.dbName)
	if err != nil {
		return fmt.Errorf("open kv %s: %w", c.dbName, err)
	}
	defer db.Close()
	// Pull the latest replica before reading
	if err := db.Sync(); err != nil {
		return fmt.Errorf("sync kv %s: %w", c.dbName, err)
	}
	return fn(db)
}

// subRecord is the replicated form of one subscription. Last writer
// wins on UpdatedAt.
type subRecord struct {
	URL       string    `json:"url"`
	Name      string    `json:"name,omitempty"`
	Folder    string    `json:"folder,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// stateRecord is the replicated form of one article's status flags.
type stateRecord struct {
	Read      bool      `json:"read"`
	Starred   bool      `json:"starred"`
	UpdatedAt time.Time `json:"updated_at"`
}

// folderRecord is the replicated form of one folder.
type folderRecord struct {
	Name       string    `json:"name"`
	SyncPaused bool      `json:"sync_paused,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	Deleted    bool      `json:"deleted,omitempty"`
}

// Cloud syncs an account through a replicated Charm KV database. Feed
// content is fetched directly like the local backend; the replica
// carries subscriptions, folders, and status flags across devices.
type Cloud struct {
	kv    KVStore
	local *Local
}

var _ account.Backend = (*Cloud)(nil)

// NewCloud constructs a Cloud backend over the given KV store.
func NewCloud(store KVStore) *Cloud {
	return &Cloud{kv: store, local: NewLocal()}
}

func subKey(url string) []byte     { return []byte(subPrefix + url) }
func stateKey(id string) []byte    { return []byte(statePrefix + id) }
func folderKey(name string) []byte { return []byte(folderPrefix + name) }

// RefreshAll pulls replicated structure, fetches feed content over
// HTTP, pulls replicated statuses, then pushes pending local changes.
func (b *Cloud) RefreshAll(ctx context.Context, a *account.Account) error {
	if err := b.pullStructure(ctx, a); err != nil {
		return err
	}
	if err := b.local.RefreshAll(ctx, a); err != nil {
		return err
	}
	if err := b.pullStatuses(ctx, a); err != nil {
		return err
	}
	return b.SyncArticleStatus(ctx, a)
}

// pullStructure adopts subscriptions and folders present in the
// replica but missing locally. Local-only feeds are pushed up.
func (b *Cloud) pullStructure(ctx context.Context, a *account.Account) error {
	subs := make(map[string]subRecord)
	folders := make(map[string]folderRecord)

	err := b.kv.DoReadOnly(func(tx KVTx) error {
		keys, err := tx.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			ks := string(key)
			switch {
			case strings.HasPrefix(ks, subPrefix):
				data, err := tx.Get(key)
				if err != nil {
					continue // skip unreadable records
				}
				var rec subRecord
				if err := json.Unmarshal(data, &rec); err != nil {
					continue
				}
				subs[strings.TrimPrefix(ks, subPrefix)] = rec
			case strings.HasPrefix(ks, folderPrefix):
				data, err := tx.Get(key)
				if err != nil {
					continue
				}
				var rec folderRecord
				if err := json.Unmarshal(data, &rec); err != nil {
					continue
				}
				folders[strings.TrimPrefix(ks, folderPrefix)] = rec
			}
		}
		return nil
	})
	if err != nil {
		return account.TransportErr(err)
	}

	for name, rec := range folders {
		if rec.Deleted {
			continue
		}
		if _, err := a.EnsureFolderLocal(name); err != nil {
			return err
		}
	}

	for url, rec := range subs {
		if rec.Deleted {
			if feed, ok := a.FeedByURL(url); ok {
				if err := a.DropFeedLocal(feed.ID); err != nil {
					return err
				}
			}
			continue
		}
		var name *string
		if rec.Name != "" {
			n := rec.Name
			name = &n
		}
		if _, err := a.AdoptFeed(url, nil, name, rec.Folder); err != nil {
			return err
		}
	}

	// Push local-only feeds up
	var missing []*models.Feed
	for _, feed := range a.Feeds() {
		if _, ok := subs[feed.URL]; !ok {
			missing = append(missing, feed)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err = b.kv.Do(func(tx KVTx) error {
		now := time.Now()
		for _, feed := range missing {
			rec := subRecord{URL: feed.URL, Folder: feed.Folder, UpdatedAt: now}
			if feed.Name != nil {
				rec.Name = *feed.Name
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal sub: %w", err)
			}
			if err := tx.Set(subKey(feed.URL), data); err != nil {
				return fmt.Errorf("set sub: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return account.TransportErr(err)
	}
	return nil
}

// pullStatuses applies replicated status flags to the local store.
// The replica only holds explicitly-flagged articles, so records are
// applied individually rather than reconciled as a complete set.
func (b *Cloud) pullStatuses(ctx context.Context, a *account.Account) error {
	states := make(map[string]stateRecord)
	err := b.kv.DoReadOnly(func(tx KVTx) error {
		keys, err := tx.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			ks := string(key)
			if !strings.HasPrefix(ks, statePrefix) {
				continue
			}
			data, err := tx.Get(key)
			if err != nil {
				continue
			}
			var rec stateRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			states[strings.TrimPrefix(ks, statePrefix)] = rec
		}
		return nil
	})
	if err != nil {
		return account.TransportErr(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batches := map[models.StatusKey]map[bool][]string{
		models.StatusRead:    {true: nil, false: nil},
		models.StatusStarred: {true: nil, false: nil},
	}
	for id, rec := range states {
		batches[models.StatusRead][rec.Read] = append(batches[models.StatusRead][rec.Read], id)
		batches[models.StatusStarred][rec.Starred] = append(batches[models.StatusStarred][rec.Starred], id)
	}
	for key, byFlag := range batches {
		for flag, ids := range byFlag {
			if err := a.ApplyRemoteStatus(ids, key, flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncArticleStatus pushes the pending status set into the replica and
// clears it on success.
func (b *Cloud) SyncArticleStatus(ctx context.Context, a *account.Account) error {
	pending := a.PendingStatuses()
	if pending.Len() == 0 {
		return nil
	}

	push := func(key models.StatusKey) error {
		setTrue, setFalse := pending.Batches(key)
		if len(setTrue) == 0 && len(setFalse) == 0 {
			return nil
		}
		err := b.kv.Do(func(tx KVTx) error {
			now := time.Now()
			write := func(ids []string, flag bool) error {
				for _, id := range ids {
					rec := stateRecord{UpdatedAt: now}
					if data, err := tx.Get(stateKey(id)); err == nil && data != nil {
						// Merge with the other flag's replicated value
						_ = json.Unmarshal(data, &rec)
						rec.UpdatedAt = now
					}
					switch key {
					case models.StatusRead:
						rec.Read = flag
					case models.StatusStarred:
						rec.Starred = flag
					}
					data, err := json.Marshal(rec)
					if err != nil {
						return fmt.Errorf("marshal state: %w", err)
					}
					if err := tx.Set(stateKey(id), data); err != nil {
						return fmt.Errorf("set state: %w", err)
					}
				}
				return nil
			}
			if err := write(setTrue, true); err != nil {
				return err
			}
			return write(setFalse, false)
		})
		if err != nil {
			return account.TransportErr(err)
		}
		pending.Clear(append(setTrue, setFalse...), key)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := push(models.StatusRead); err != nil {
		return err
	}
	return push(models.StatusStarred)
}

// CreateFeed validates the feed like the local backend and records the
// subscription in the replica.
func (b *Cloud) CreateFeed(ctx context.Context, a *account.Account, url, name, folder string) (*models.Feed, error) {
	feed, err := b.local.CreateFeed(ctx, a, url, name, folder)
	if err != nil {
		return nil, err
	}
	if err := b.writeSub(feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (b *Cloud) writeSub(feed *models.Feed) error {
	rec := subRecord{URL: feed.URL, Folder: feed.Folder, UpdatedAt: time.Now()}
	if feed.Name != nil {
		rec.Name = *feed.Name
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal sub: %w", err)
	}
	err = b.kv.Do(func(tx KVTx) error {
		return tx.Set(subKey(feed.URL), data)
	})
	if err != nil {
		return account.TransportErr(err)
	}
	return nil
}

// RemoveFeed tombstones the subscription so other replicas drop it too.
func (b *Cloud) RemoveFeed(ctx context.Context, a *account.Account, feed *models.Feed) error {
	rec := subRecord{URL: feed.URL, UpdatedAt: time.Now(), Deleted: true}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal sub: %w", err)
	}
	err = b.kv.Do(func(tx KVTx) error {
		return tx.Set(subKey(feed.URL), data)
	})
	if err != nil {
		return account.TransportErr(err)
	}
	return nil
}

// RenameFeed re-replicates the subscription with the new name.
func (b *Cloud) RenameFeed(ctx context.Context, a *account.Account, feed *models.Feed, name string) error {
	updated := *feed
	updated.Name = &name
	return b.writeSub(&updated)
}

// MoveFeed re-replicates the subscription with the new container.
func (b *Cloud) MoveFeed(ctx context.Context, a *account.Account, feed *models.Feed, folder string) error {
	updated := *feed
	updated.Folder = folder
	return b.writeSub(&updated)
}

// AddFolder replicates a folder record.
func (b *Cloud) AddFolder(ctx context.Context, a *account.Account, name string) (*models.Folder, error) {
	rec := folderRecord{Name: name, UpdatedAt: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal folder: %w", err)
	}
	err = b.kv.Do(func(tx KVTx) error {
		return tx.Set(folderKey(name), data)
	})
	if err != nil {
		return nil, account.TransportErr(err)
	}
	return &models.Folder{Name: name}, nil
}

// RenameFolder tombstones the old record and writes the new one.
func (b *Cloud) RenameFolder(ctx context.Context, a *account.Account, folder *models.Folder, name string) error {
	now := time.Now()
	oldRec := folderRecord{Name: folder.Name, UpdatedAt: now, Deleted: true}
	newRec := folderRecord{Name: name, SyncPaused: folder.SyncPaused, UpdatedAt: now}
	oldData, err := json.Marshal(oldRec)
	if err != nil {
		return fmt.Errorf("marshal folder: %w", err)
	}
	newData, err := json.Marshal(newRec)
	if err != nil {
		return fmt.Errorf("marshal folder: %w", err)
	}
	err = b.kv.Do(func(tx KVTx) error {
		if err := tx.Set(folderKey(folder.Name), oldData); err != nil {
			return err
		}
		return tx.Set(folderKey(name), newData)
	})
	if err != nil {
		return account.TransportErr(err)
	}
	return nil
}

// RemoveFolder tombstones the folder record.
func (b *Cloud) RemoveFolder(ctx context.Context, a *account.Account, folder *models.Folder) error {
	rec := folderRecord{Name: folder.Name, UpdatedAt: time.Now(), Deleted: true}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal folder: %w", err)
	}
	err = b.kv.Do(func(tx KVTx) error {
		return tx.Set(folderKey(folder.Name), data)
	})
	if err != nil {
		return account.TransportErr(err)
	}
	return nil
}
