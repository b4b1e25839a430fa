// ABOUTME: Read-side article queries over the account store
// ABOUTME: Unread queries self-heal the unread index when counts drift

package account

import (
	"fmt"

	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/storage"
	"github.com/harper/reader/internal/timeutil"
)

// FetchUnread returns unread articles, optionally limited to one feed.
// The fetched set is compared against the cached unread count and the
// index is corrected when they disagree.
func (a *Account) FetchUnread(feedID string, limit int) ([]*models.Article, error) {
	f := &storage.ArticleFilter{UnreadOnly: true, Limit: limitPtr(limit)}
	if feedID != "" {
		f.FeedID = &feedID
	}
	articles, err := a.store.FetchArticles(f)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch unread: %w", err))
	}

	// Self-heal: an unfiltered fetch is an authoritative count
	if limit <= 0 || len(articles) < limit {
		if feedID != "" {
			if a.index.Count(feedID) != len(articles) {
				if err := a.UpdateUnreadCounts([]string{feedID}); err != nil {
					return articles, err
				}
			}
		} else if a.index.Total() != len(articles) {
			if err := a.RebuildUnreadIndex(); err != nil {
				return articles, err
			}
		}
	}
	return articles, nil
}

// FetchStarred returns starred articles.
func (a *Account) FetchStarred(limit int) ([]*models.Article, error) {
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{StarredOnly: true, Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch starred: %w", err))
	}
	return articles, nil
}

// FetchToday returns articles that arrived since the local start of day.
func (a *Account) FetchToday(limit int) ([]*models.Article, error) {
	since := timeutil.StartOfToday()
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{Since: &since, Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch today: %w", err))
	}
	return articles, nil
}

// FetchWeek returns articles that arrived since the local start of the
// week.
func (a *Account) FetchWeek(limit int) ([]*models.Article, error) {
	since := timeutil.StartOfWeek()
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{Since: &since, Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch week: %w", err))
	}
	return articles, nil
}

// FetchAll returns articles across all feeds, read or not.
func (a *Account) FetchAll(limit int) ([]*models.Article, error) {
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch articles: %w", err))
	}
	return articles, nil
}

// FetchFeed returns articles belonging to one feed.
func (a *Account) FetchFeed(feedID string, limit int) ([]*models.Article, error) {
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{FeedID: &feedID, Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch feed articles: %w", err))
	}
	return articles, nil
}

// FetchFolder returns articles from every feed in the named folder.
func (a *Account) FetchFolder(folderName string, limit int) ([]*models.Article, error) {
	feeds := a.FeedsInFolder(folderName)
	if len(feeds) == 0 {
		return nil, nil
	}
	ids := make([]string, len(feeds))
	for i, f := range feeds {
		ids[i] = f.ID
	}
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{FeedIDs: ids, Limit: limitPtr(limit)})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch folder articles: %w", err))
	}
	return articles, nil
}

// FetchByIDs returns the articles with the given IDs. IDs with no
// downloaded content are omitted.
func (a *Account) FetchByIDs(ids []string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	articles, err := a.store.FetchArticles(&storage.ArticleFilter{ArticleIDs: ids})
	if err != nil {
		return nil, StoreErr(fmt.Errorf("fetch by ids: %w", err))
	}
	return articles, nil
}

// Article returns one article by ID.
func (a *Account) Article(id string) (*models.Article, error) {
	article, err := a.store.GetArticle(id)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("get article: %w", err))
	}
	return article, nil
}

// Search runs a full-text search over titles and bodies.
func (a *Account) Search(query string, limit int) ([]*models.Article, error) {
	articles, err := a.store.Search(query, limit, nil)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("search: %w", err))
	}
	return articles, nil
}

// SearchWithin runs a full-text search restricted to the given IDs.
func (a *Account) SearchWithin(query string, limit int, withinIDs []string) ([]*models.Article, error) {
	if len(withinIDs) == 0 {
		return nil, nil
	}
	articles, err := a.store.Search(query, limit, withinIDs)
	if err != nil {
		return nil, StoreErr(fmt.Errorf("search within: %w", err))
	}
	return articles, nil
}

// limitPtr converts a CLI-style limit (0 or negative meaning "all")
// into the store's optional form.
func limitPtr(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
