// ABOUTME: SQLite storage implementation using modernc.org/sqlite (pure Go)
// ABOUTME: Articles and statuses live in separate tables so remote IDs can carry state before content arrives

package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/parse"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a feed or article does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite storage instance.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	// WAL mode for better concurrency; busy_timeout makes concurrent
	// writers queue instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS feeds (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			url TEXT UNIQUE NOT NULL,
			external_id TEXT,
			name TEXT,
			home_page_url TEXT,
			folder TEXT DEFAULT '',
			etag TEXT,
			last_modified TEXT,
			last_fetched_at TIMESTAMP,
			last_error TEXT,
			error_count INTEGER DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_feeds_url ON feeds(url);
		CREATE INDEX IF NOT EXISTS idx_feeds_external_id ON feeds(external_id);

		CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			feed_id TEXT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			guid TEXT NOT NULL,
			title TEXT,
			link TEXT,
			author TEXT,
			published_at TIMESTAMP,
			body TEXT,
			UNIQUE(feed_id, guid)
		);

		CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id);
		CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);

		-- Statuses are keyed by article ID but not foreign-keyed to
		-- articles: a remote service can report state for IDs whose
		-- content has not been downloaded yet.
		CREATE TABLE IF NOT EXISTS statuses (
			article_id TEXT PRIMARY KEY,
			read INTEGER NOT NULL DEFAULT 0,
			starred INTEGER NOT NULL DEFAULT 0,
			date_arrived TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_statuses_read ON statuses(read);
		CREATE INDEX IF NOT EXISTS idx_statuses_starred ON statuses(starred);

		CREATE TABLE IF NOT EXISTS account_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- FTS5 for content search
		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			title,
			body,
			content=articles,
			content_rowid=rowid
		);

		-- Triggers to keep FTS in sync
		CREATE TRIGGER IF NOT EXISTS articles_ai AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, body)
			VALUES (new.rowid, new.title, new.body);
		END;

		CREATE TRIGGER IF NOT EXISTS articles_ad AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, body)
			VALUES ('delete', old.rowid, old.title, old.body);
		END;

		CREATE TRIGGER IF NOT EXISTS articles_au AFTER UPDATE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, body)
			VALUES ('delete', old.rowid, old.title, old.body);
			INSERT INTO articles_fts(rowid, title, body)
			VALUES (new.rowid, new.title, new.body);
		END;
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ArticleID derives a stable article ID from a feed ID and item GUID.
func ArticleID(feedID, guid string) string {
	sum := sha256.Sum256([]byte(feedID + ":" + guid))
	return hex.EncodeToString(sum[:16])
}

// Feed Operations

const feedColumns = `id, url, external_id, name, home_page_url, folder, etag, last_modified, last_fetched_at, last_error, error_count, created_at`

// CreateFeed stores a new feed.
func (s *SQLiteStore) CreateFeed(feed *models.Feed) error {
	query := `
		INSERT INTO feeds (` + feedColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		feed.ID, feed.URL, feed.ExternalID, feed.Name, feed.HomePageURL, feed.Folder,
		feed.ETag, feed.LastModified, timeToSQL(feed.LastFetchedAt),
		feed.LastError, feed.ErrorCount, feed.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}
	return nil
}

// GetFeed retrieves a feed by ID.
func (s *SQLiteStore) GetFeed(id string) (*models.Feed, error) {
	return s.scanFeed(s.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id))
}

// GetFeedByURL finds a feed by its URL.
func (s *SQLiteStore) GetFeedByURL(url string) (*models.Feed, error) {
	return s.scanFeed(s.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE url = ?`, url))
}

// ListFeeds returns all feeds, sorted by creation date (newest first).
func (s *SQLiteStore) ListFeeds() ([]*models.Feed, error) {
	rows, err := s.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*models.Feed
	for rows.Next() {
		feed, err := s.scanFeedFromRows(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

// UpdateFeed updates an existing feed.
func (s *SQLiteStore) UpdateFeed(feed *models.Feed) error {
	query := `
		UPDATE feeds SET
			url = ?, external_id = ?, name = ?, home_page_url = ?, folder = ?,
			etag = ?, last_modified = ?, last_fetched_at = ?, last_error = ?, error_count = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query,
		feed.URL, feed.ExternalID, feed.Name, feed.HomePageURL, feed.Folder,
		feed.ETag, feed.LastModified, timeToSQL(feed.LastFetchedAt),
		feed.LastError, feed.ErrorCount,
		feed.ID,
	)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feed %s: %w", feed.ID, ErrNotFound)
	}
	return nil
}

// DeleteFeed removes a feed and all its articles (cascade).
func (s *SQLiteStore) DeleteFeed(id string) error {
	result, err := s.db.Exec("DELETE FROM feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feed %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateFeedFetchState updates feed caching headers and clears errors.
func (s *SQLiteStore) UpdateFeedFetchState(feedID string, etag, lastModified *string, fetchedAt time.Time) error {
	query := `
		UPDATE feeds SET
			etag = ?, last_modified = ?, last_fetched_at = ?,
			last_error = NULL, error_count = 0
		WHERE id = ?
	`
	result, err := s.db.Exec(query, etag, lastModified, fetchedAt, feedID)
	if err != nil {
		return fmt.Errorf("update feed fetch state: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feed %s: %w", feedID, ErrNotFound)
	}
	return nil
}

// UpdateFeedError records a fetch error for a feed.
func (s *SQLiteStore) UpdateFeedError(feedID string, errMsg string) error {
	query := `UPDATE feeds SET last_error = ?, error_count = error_count + 1 WHERE id = ?`
	result, err := s.db.Exec(query, errMsg, feedID)
	if err != nil {
		return fmt.Errorf("update feed error: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feed %s: %w", feedID, ErrNotFound)
	}
	return nil
}

// Article Operations

const articleColumns = `a.id, a.feed_id, a.guid, a.title, a.link, a.author, a.published_at, a.body,
	COALESCE(s.read, 0), COALESCE(s.starred, 0), s.date_arrived`

const articleFrom = ` FROM articles a LEFT JOIN statuses s ON s.article_id = a.id`

// FetchArticles returns articles matching the filter, newest first.
func (s *SQLiteStore) FetchArticles(filter *ArticleFilter) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + articleFrom

	var conditions []string
	var args []interface{}

	if filter != nil {
		// FeedIDs takes precedence over FeedID
		if len(filter.FeedIDs) > 0 {
			conditions = append(conditions, "a.feed_id IN ("+placeholders(len(filter.FeedIDs))+")")
			for _, id := range filter.FeedIDs {
				args = append(args, id)
			}
		} else if filter.FeedID != nil {
			conditions = append(conditions, "a.feed_id = ?")
			args = append(args, *filter.FeedID)
		}

		if len(filter.ArticleIDs) > 0 {
			conditions = append(conditions, "a.id IN ("+placeholders(len(filter.ArticleIDs))+")")
			for _, id := range filter.ArticleIDs {
				args = append(args, id)
			}
		}

		if filter.UnreadOnly {
			conditions = append(conditions, "COALESCE(s.read, 0) = 0")
		}
		if filter.StarredOnly {
			conditions = append(conditions, "COALESCE(s.starred, 0) = 1")
		}

		if filter.Since != nil {
			conditions = append(conditions, "a.published_at >= ?")
			args = append(args, *filter.Since)
		}
		if filter.Until != nil {
			conditions = append(conditions, "a.published_at < ?")
			args = append(args, *filter.Until)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.published_at DESC"

	if filter != nil {
		if filter.Limit != nil {
			query += fmt.Sprintf(" LIMIT %d", *filter.Limit)
		}
		if filter.Offset != nil {
			if filter.Limit == nil {
				query += " LIMIT -1"
			}
			query += fmt.Sprintf(" OFFSET %d", *filter.Offset)
		}
	}

	return s.queryArticles(query, args...)
}

// GetArticle retrieves an article by ID.
func (s *SQLiteStore) GetArticle(id string) (*models.Article, error) {
	row := s.db.QueryRow(`SELECT `+articleColumns+articleFrom+` WHERE a.id = ?`, id)
	article, err := scanArticle(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return article, nil
}

// UpdateArticles applies parsed items to a feed's article set and
// reports what was inserted, updated, and deleted.
func (s *SQLiteStore) UpdateArticles(feedID string, items []parse.Item, opts UpdateOptions) (*ArticleChanges, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	changes := &ArticleChanges{}
	now := time.Now()
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		id := ArticleID(feedID, item.GUID)
		if opts.IDFromGUID {
			id = item.GUID
		}
		seen[id] = true

		existing, err := s.articleInTx(tx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup article: %w", err)
		}

		incoming := articleFromItem(id, feedID, item)

		if existing == nil {
			_, err = tx.Exec(`
				INSERT INTO articles (id, feed_id, guid, title, link, author, published_at, body)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, incoming.ID, incoming.FeedID, incoming.GUID, incoming.Title, incoming.Link,
				incoming.Author, timeToSQL(incoming.PublishedAt), incoming.Body)
			if err != nil {
				return nil, fmt.Errorf("insert article: %w", err)
			}
			_, err = tx.Exec(`
				INSERT OR IGNORE INTO statuses (article_id, read, starred, date_arrived)
				VALUES (?, 0, 0, ?)
			`, incoming.ID, now)
			if err != nil {
				return nil, fmt.Errorf("insert status: %w", err)
			}
			incoming.Status = models.ArticleStatus{DateArrived: now}
			changes.New = append(changes.New, incoming)
			continue
		}

		if articleContentEqual(existing, incoming) {
			continue
		}

		_, err = tx.Exec(`
			UPDATE articles SET title = ?, link = ?, author = ?, published_at = ?, body = ?
			WHERE id = ?
		`, incoming.Title, incoming.Link, incoming.Author,
			timeToSQL(incoming.PublishedAt), incoming.Body, incoming.ID)
		if err != nil {
			return nil, fmt.Errorf("update article: %w", err)
		}
		incoming.Status = existing.Status
		changes.Updated = append(changes.Updated, incoming)
	}

	if opts.DeleteOlder {
		rows, err := tx.Query(`SELECT id FROM articles WHERE feed_id = ?`, feedID)
		if err != nil {
			return nil, fmt.Errorf("list feed articles: %w", err)
		}
		var stale []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan article id: %w", err)
			}
			if !seen[id] {
				stale = append(stale, id)
			}
		}
		rows.Close()
		for _, id := range stale {
			if _, err := tx.Exec(`DELETE FROM articles WHERE id = ?`, id); err != nil {
				return nil, fmt.Errorf("delete article: %w", err)
			}
			if _, err := tx.Exec(`DELETE FROM statuses WHERE article_id = ?`, id); err != nil {
				return nil, fmt.Errorf("delete status: %w", err)
			}
		}
		changes.Deleted = stale
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return changes, nil
}

// MarkArticles sets a status flag on the given articles and returns
// only the IDs whose persisted value actually changed. Missing
// statuses are created as read and unstarred before the flag applies.
func (s *SQLiteStore) MarkArticles(articleIDs []string, key models.StatusKey, flag bool) ([]string, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	column, err := statusColumn(key)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var changed []string

	for _, id := range articleIDs {
		var current int
		err := tx.QueryRow(`SELECT `+column+` FROM statuses WHERE article_id = ?`, id).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// New statuses default to read so a first sync doesn't
			// resurrect ancient history as unread.
			read, starred := 1, 0
			switch key {
			case models.StatusRead:
				read = boolToInt(flag)
			case models.StatusStarred:
				starred = boolToInt(flag)
			}
			if _, err := tx.Exec(`
				INSERT INTO statuses (article_id, read, starred, date_arrived)
				VALUES (?, ?, ?, ?)
			`, id, read, starred, now); err != nil {
				return nil, fmt.Errorf("insert status: %w", err)
			}
			changed = append(changed, id)
		case err != nil:
			return nil, fmt.Errorf("query status: %w", err)
		case current != boolToInt(flag):
			if _, err := tx.Exec(`UPDATE statuses SET `+column+` = ? WHERE article_id = ?`, boolToInt(flag), id); err != nil {
				return nil, fmt.Errorf("update status: %w", err)
			}
			changed = append(changed, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return changed, nil
}

// UnreadCounts returns per-feed unread counts for the given feeds.
// Feeds with no unread articles are reported as zero.
func (s *SQLiteStore) UnreadCounts(feedIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(feedIDs))
	if len(feedIDs) == 0 {
		return counts, nil
	}
	for _, id := range feedIDs {
		counts[id] = 0
	}

	query := `
		SELECT a.feed_id, COUNT(*)
		FROM articles a LEFT JOIN statuses s ON s.article_id = a.id
		WHERE COALESCE(s.read, 0) = 0 AND a.feed_id IN (` + placeholders(len(feedIDs)) + `)
		GROUP BY a.feed_id
	`
	args := make([]interface{}, len(feedIDs))
	for i, id := range feedIDs {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unread counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var feedID string
		var n int
		if err := rows.Scan(&feedID, &n); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		counts[feedID] = n
	}
	return counts, rows.Err()
}

// AllUnreadCounts returns unread counts for every feed.
func (s *SQLiteStore) AllUnreadCounts() (map[string]int, error) {
	query := `
		SELECT a.feed_id, SUM(CASE WHEN COALESCE(s.read, 0) = 0 THEN 1 ELSE 0 END)
		FROM articles a LEFT JOIN statuses s ON s.article_id = a.id
		GROUP BY a.feed_id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query all unread counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var feedID string
		var n int
		if err := rows.Scan(&feedID, &n); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		counts[feedID] = n
	}
	return counts, rows.Err()
}

// CountUnread counts unread articles, optionally for one feed.
func (s *SQLiteStore) CountUnread(feedID *string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM articles a LEFT JOIN statuses s ON s.article_id = a.id
		WHERE COALESCE(s.read, 0) = 0
	`
	var args []interface{}
	if feedID != nil {
		query += ` AND a.feed_id = ?`
		args = append(args, *feedID)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// AllUnreadArticleIDs returns the set of unread article IDs, including
// status-only IDs whose content has not been downloaded.
func (s *SQLiteStore) AllUnreadArticleIDs() (map[string]bool, error) {
	return s.idSet(`
		SELECT a.id FROM articles a LEFT JOIN statuses s ON s.article_id = a.id
		WHERE COALESCE(s.read, 0) = 0
		UNION
		SELECT article_id FROM statuses WHERE read = 0
	`)
}

// AllStarredArticleIDs returns the set of starred article IDs.
func (s *SQLiteStore) AllStarredArticleIDs() (map[string]bool, error) {
	return s.idSet(`SELECT article_id FROM statuses WHERE starred = 1`)
}

func (s *SQLiteStore) idSet(query string) (map[string]bool, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query id set: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// FeedIDsForArticles maps article IDs to the feeds they belong to.
func (s *SQLiteStore) FeedIDsForArticles(articleIDs []string) (map[string]string, error) {
	result := make(map[string]string, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	query := `SELECT id, feed_id FROM articles WHERE id IN (` + placeholders(len(articleIDs)) + `)`
	args := make([]interface{}, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query article feeds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, feedID string
		if err := rows.Scan(&id, &feedID); err != nil {
			return nil, fmt.Errorf("scan article feed: %w", err)
		}
		result[id] = feedID
	}
	return result, rows.Err()
}

// Search performs full-text search, optionally within an ID set.
func (s *SQLiteStore) Search(query string, limit int, withinIDs []string) ([]*models.Article, error) {
	sqlQuery := `
		SELECT ` + articleColumns + `
		FROM articles a
		INNER JOIN articles_fts fts ON a.rowid = fts.rowid
		LEFT JOIN statuses s ON s.article_id = a.id
		WHERE articles_fts MATCH ?
	`
	args := []interface{}{query}

	if len(withinIDs) > 0 {
		sqlQuery += ` AND a.id IN (` + placeholders(len(withinIDs)) + `)`
		for _, id := range withinIDs {
			args = append(args, id)
		}
	}

	sqlQuery += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	return s.queryArticles(sqlQuery, args...)
}

// Account state

// GetState reads a persisted state value, returning def when unset.
func (s *SQLiteStore) GetState(key, def string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM account_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("get state: %w", err)
	}
	return value, nil
}

// SetState writes a persisted state value.
func (s *SQLiteStore) SetState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO account_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// Maintenance

// Compact performs database maintenance (VACUUM).
func (s *SQLiteStore) Compact() error {
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// Helper functions

func (s *SQLiteStore) queryArticles(query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (s *SQLiteStore) articleInTx(tx *sql.Tx, id string) (*models.Article, error) {
	row := tx.QueryRow(`SELECT `+articleColumns+articleFrom+` WHERE a.id = ?`, id)
	return scanArticle(row.Scan)
}

func scanArticle(scan func(...interface{}) error) (*models.Article, error) {
	var article models.Article
	var publishedAt, dateArrived sql.NullTime
	var readInt, starredInt int
	if err := scan(
		&article.ID, &article.FeedID, &article.GUID, &article.Title, &article.Link,
		&article.Author, &publishedAt, &article.Body, &readInt, &starredInt, &dateArrived,
	); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	article.Status = models.ArticleStatus{
		Read:    readInt == 1,
		Starred: starredInt == 1,
	}
	// Articles without a status row (remote IDs seen before content)
	// fall back to the publication date, then to now.
	switch {
	case dateArrived.Valid:
		article.Status.DateArrived = dateArrived.Time
	case publishedAt.Valid:
		article.Status.DateArrived = publishedAt.Time
	default:
		article.Status.DateArrived = time.Now()
	}
	return &article, nil
}

func articleFromItem(id, feedID string, item parse.Item) *models.Article {
	article := &models.Article{
		ID:          id,
		FeedID:      feedID,
		GUID:        item.GUID,
		PublishedAt: item.PublishedAt,
	}
	if item.Title != "" {
		title := item.Title
		article.Title = &title
	}
	if item.Link != "" {
		link := item.Link
		article.Link = &link
	}
	if item.Author != "" {
		author := item.Author
		article.Author = &author
	}
	if item.Body != "" {
		body := item.Body
		article.Body = &body
	}
	return article
}

func articleContentEqual(a, b *models.Article) bool {
	return strPtrEqual(a.Title, b.Title) &&
		strPtrEqual(a.Link, b.Link) &&
		strPtrEqual(a.Author, b.Author) &&
		strPtrEqual(a.Body, b.Body) &&
		timePtrEqual(a.PublishedAt, b.PublishedAt)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func statusColumn(key models.StatusKey) (string, error) {
	switch key {
	case models.StatusRead:
		return "read", nil
	case models.StatusStarred:
		return "starred", nil
	}
	return "", fmt.Errorf("unknown status key: %q", key)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func timeToSQL(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) scanFeed(row *sql.Row) (*models.Feed, error) {
	feed, err := scanFeedFields(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feed: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return feed, nil
}

func (s *SQLiteStore) scanFeedFromRows(rows *sql.Rows) (*models.Feed, error) {
	feed, err := scanFeedFields(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return feed, nil
}

func scanFeedFields(scan func(...interface{}) error) (*models.Feed, error) {
	var feed models.Feed
	var lastFetched sql.NullTime
	if err := scan(
		&feed.ID, &feed.URL, &feed.ExternalID, &feed.Name, &feed.HomePageURL, &feed.Folder,
		&feed.ETag, &feed.LastModified, &lastFetched,
		&feed.LastError, &feed.ErrorCount, &feed.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastFetched.Valid {
		feed.LastFetchedAt = &lastFetched.Time
	}
	return &feed, nil
}

var _ Store = (*SQLiteStore)(nil)
