// ABOUTME: Reconciles remote status-ID streams against local store state
// ABOUTME: Paginated collection first, then set difference, then batched writes

package account

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harper/reader/internal/models"
)

// IDPager yields one page of article IDs per call. An empty next
// continuation means the stream is exhausted. The first call passes an
// empty continuation.
type IDPager interface {
	Page(ctx context.Context, continuation string) (ids []string, next string, err error)
}

// IDPagerFunc adapts a function to the IDPager interface.
type IDPagerFunc func(ctx context.Context, continuation string) ([]string, string, error)

func (f IDPagerFunc) Page(ctx context.Context, continuation string) ([]string, string, error) {
	return f(ctx, continuation)
}

// IngestUnreadIDs reconciles the remote unread-ID stream with local
// state. Remote IDs absent locally become unread; local unread IDs the
// remote no longer reports become read. IDs with a pending local
// change are excluded from both directions: the local intent wins
// until it has been pushed. No store mutation happens until the whole
// stream has been collected, so a cancellation mid-pagination leaves
// the store untouched.
func (a *Account) IngestUnreadIDs(ctx context.Context, pager IDPager) error {
	remote, err := collectIDs(ctx, pager)
	if err != nil {
		return fmt.Errorf("collect unread ids: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	local, err := a.store.AllUnreadArticleIDs()
	if err != nil {
		return StoreErr(fmt.Errorf("local unread ids: %w", err))
	}

	pending := a.pending.IDSet(models.StatusRead)
	toMarkUnread := subtract(remote, local, pending)
	toMarkRead := subtract(local, remote, pending)

	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.Debug("unread reconciliation",
		"remote", len(remote), "local", len(local),
		"to_unread", len(toMarkUnread), "to_read", len(toMarkRead))

	return a.applyReconciled(models.StatusRead, toMarkUnread, toMarkRead)
}

// IngestStarredIDs reconciles the remote starred-ID stream, with the
// same pending-wins and collect-before-mutate semantics as
// IngestUnreadIDs.
func (a *Account) IngestStarredIDs(ctx context.Context, pager IDPager) error {
	remote, err := collectIDs(ctx, pager)
	if err != nil {
		return fmt.Errorf("collect starred ids: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	local, err := a.store.AllStarredArticleIDs()
	if err != nil {
		return StoreErr(fmt.Errorf("local starred ids: %w", err))
	}

	pending := a.pending.IDSet(models.StatusStarred)
	toStar := subtract(remote, local, pending)
	toUnstar := subtract(local, remote, pending)

	if err := ctx.Err(); err != nil {
		return err
	}
	return a.applyReconciled(models.StatusStarred, toUnstar, toStar)
}

// applyReconciled writes both reconciliation batches. The batches run
// concurrently and both always run to completion: a failure in one
// never discards the other's progress. The first error is surfaced.
// One StatusesChanged event is published per non-empty batch.
func (a *Account) applyReconciled(key models.StatusKey, clearFlag, setFlag []string) error {
	var g errgroup.Group

	if len(clearFlag) > 0 {
		g.Go(func() error {
			changed, err := a.store.MarkArticles(clearFlag, key, false)
			if err != nil {
				return StoreErr(fmt.Errorf("mark %s=false: %w", key, err))
			}
			a.applyStatusChange(changed, key, false)
			return nil
		})
	}
	if len(setFlag) > 0 {
		g.Go(func() error {
			changed, err := a.store.MarkArticles(setFlag, key, true)
			if err != nil {
				return StoreErr(fmt.Errorf("mark %s=true: %w", key, err))
			}
			a.applyStatusChange(changed, key, true)
			return nil
		})
	}
	return g.Wait()
}

// ApplyRemoteStatus applies a remote-originated status batch directly,
// without entering the pending set. IDs with a pending local change
// for the same key are excluded: local intent wins until pushed.
func (a *Account) ApplyRemoteStatus(ids []string, key models.StatusKey, flag bool) error {
	pending := a.pending.IDSet(key)
	filtered := ids[:0:0]
	for _, id := range ids {
		if !pending[id] {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	changed, err := a.store.MarkArticles(filtered, key, flag)
	if err != nil {
		return StoreErr(fmt.Errorf("apply remote %s=%t: %w", key, flag, err))
	}
	a.applyStatusChange(changed, key, flag)
	return nil
}

// collectIDs drains a pager into a set, checking for cancellation
// between pages.
func collectIDs(ctx context.Context, pager IDPager) (map[string]bool, error) {
	ids := make(map[string]bool)
	continuation := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, next, err := pager.Page(ctx, continuation)
		if err != nil {
			return nil, err
		}
		for _, id := range page {
			ids[id] = true
		}
		if next == "" {
			return ids, nil
		}
		continuation = next
	}
}

// subtract returns the members of a absent from both b and excluded.
func subtract(a, b map[string]bool, excluded map[string]bool) []string {
	var out []string
	for id := range a {
		if !b[id] && !excluded[id] {
			out = append(out, id)
		}
	}
	return out
}
