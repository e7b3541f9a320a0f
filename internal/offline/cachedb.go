package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/liftlog/liftlog/internal/storage"
)

// ErrCacheMiss is returned by cache lookups that find nothing.
var ErrCacheMiss = errors.New("cache miss")

// CacheDB is the gateway's durable state: named response caches plus
// the mutation sync queue, in a database file separate from the main
// store.
type CacheDB struct {
	path string
	db   *sql.DB
}

func OpenCacheDB(ctx context.Context, path string) (*CacheDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %v", storage.ErrUnavailable, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			cache_name TEXT NOT NULL,
			url        TEXT NOT NULL,
			status     INTEGER NOT NULL,
			headers    TEXT NOT NULL DEFAULT '{}',
			body       BLOB,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (cache_name, url)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid        TEXT NOT NULL UNIQUE,
			method      TEXT NOT NULL,
			url         TEXT NOT NULL,
			headers     TEXT NOT NULL DEFAULT '{}',
			body        BLOB,
			enqueued_at TEXT NOT NULL,
			attempts    INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create cache schema: %w", err)
		}
	}
	return &CacheDB{path: path, db: db}, nil
}

func (c *CacheDB) Close() error {
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Put stores a response under a named cache, replacing any previous
// entry for the URL.
func (c *CacheDB) Put(ctx context.Context, cacheName, url string, resp *Response) error {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("marshal cached headers: %w", err)
	}
	fetchedAt := resp.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (cache_name, url, status, headers, body, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cacheName, url, resp.Status, string(headers), resp.Body, fetchedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cache put %s: %w", url, err)
	}
	return nil
}

// Get looks a URL up in one named cache.
func (c *CacheDB) Get(ctx context.Context, cacheName, url string) (*Response, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT status, headers, body, fetched_at FROM cache_entries
		WHERE cache_name = ? AND url = ?`, cacheName, url)
	return scanCached(row, url)
}

// Match looks a URL up across every cache in the given order.
func (c *CacheDB) Match(ctx context.Context, url string, cacheNames ...string) (*Response, error) {
	for _, name := range cacheNames {
		resp, err := c.Get(ctx, name, url)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		return resp, err
	}
	return nil, fmt.Errorf("%w: %s", ErrCacheMiss, url)
}

func scanCached(row *sql.Row, url string) (*Response, error) {
	var (
		status    int
		headers   string
		body      []byte
		fetchedAt string
	)
	err := row.Scan(&status, &headers, &body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, url)
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", url, err)
	}

	resp := &Response{Status: status, Body: body, FromCache: true}
	if err := json.Unmarshal([]byte(headers), &resp.Headers); err != nil {
		return nil, fmt.Errorf("decode cached headers for %s: %w", url, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		resp.FetchedAt = t
	}
	return resp, nil
}

// CacheNames lists every distinct named cache present.
func (c *CacheDB) CacheNames(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT cache_name FROM cache_entries ORDER BY cache_name")
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteCache drops an entire named cache and returns how many entries
// it held.
func (c *CacheDB) DeleteCache(ctx context.Context, cacheName string) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE cache_name = ?", cacheName)
	if err != nil {
		return 0, fmt.Errorf("delete cache %s: %w", cacheName, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// QueuedRequest is one durably stored mutation awaiting replay.
type QueuedRequest struct {
	ID         int64             `json:"id"`
	UUID       string            `json:"uuid"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	Attempts   int               `json:"attempts"`
}

// Enqueue durably stores a failed mutation for later replay.
func (c *CacheDB) Enqueue(ctx context.Context, req Request) (*QueuedRequest, error) {
	headers, err := json.Marshal(req.Headers)
	if err != nil {
		return nil, fmt.Errorf("marshal queued headers: %w", err)
	}
	entry := &QueuedRequest{
		UUID:       uuid.NewString(),
		Method:     req.Method,
		URL:        req.URL,
		Headers:    req.Headers,
		Body:       req.Body,
		EnqueuedAt: time.Now().UTC(),
	}
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO sync_queue (uuid, method, url, headers, body, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UUID, entry.Method, entry.URL, string(headers), entry.Body,
		entry.EnqueuedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("enqueue %s %s: %w", req.Method, req.URL, err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("resolve queue id: %w", err)
	}
	return entry, nil
}

// Queue returns every pending mutation in enqueue order.
func (c *CacheDB) Queue(ctx context.Context) ([]*QueuedRequest, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, uuid, method, url, headers, body, enqueued_at, attempts
		FROM sync_queue ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sync queue: %w", err)
	}
	defer rows.Close()

	var out []*QueuedRequest
	for rows.Next() {
		var (
			entry      QueuedRequest
			headers    string
			enqueuedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.UUID, &entry.Method, &entry.URL,
			&headers, &entry.Body, &enqueuedAt, &entry.Attempts); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		if err := json.Unmarshal([]byte(headers), &entry.Headers); err != nil {
			return nil, fmt.Errorf("decode queued headers: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, enqueuedAt); err == nil {
			entry.EnqueuedAt = t
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// Dequeue removes a replayed entry.
func (c *CacheDB) Dequeue(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("dequeue %d: %w", id, err)
	}
	return nil
}

// MarkAttempt bumps the attempt counter on a queue entry that failed
// to replay.
func (c *CacheDB) MarkAttempt(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark attempt %d: %w", id, err)
	}
	return nil
}

// QueueLen reports the number of pending mutations.
func (c *CacheDB) QueueLen(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_queue").Scan(&n); err != nil {
		return 0, fmt.Errorf("count sync queue: %w", err)
	}
	return n, nil
}
