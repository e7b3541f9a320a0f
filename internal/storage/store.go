// Package storage implements the durable document store backing all
// liftlog entities: named collections over SQLite with per-record JSON
// documents, declared secondary indexes, schema migration, validation
// on write, and key/value settings.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/liftlog/liftlog/internal/logger"
	"github.com/liftlog/liftlog/internal/migration"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/validation"
)

type Store struct {
	path string
	db   *sql.DB
}

// New creates a store handle for the database at path. Nothing is
// opened until Init.
func New(path string) *Store {
	return &Store{path: path}
}

// Init opens (or creates) the database, applies pending migrations and
// seeds built-in content on a fresh database. Calling Init on an
// already-initialized store is a no-op.
func (s *Store) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create data directory: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return fmt.Errorf("%w: failed to enable foreign keys: %v", ErrUnavailable, err)
	}

	runner := migration.NewRunner(db)
	if err := runner.ValidateVersion(); err != nil {
		db.Close()
		return err
	}
	if _, err := runner.Apply(func(msg string) {
		logger.Info(msg)
	}); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db

	if err := s.seedBuiltins(ctx); err != nil {
		return fmt.Errorf("failed to seed built-in content: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for maintenance operations (storage
// usage reporting, snapshot backups).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ready() error {
	if s.db == nil {
		return fmt.Errorf("%w: store not initialized", ErrUnavailable)
	}
	return nil
}

// Add validates, sanitizes and persists a new record, returning the
// generated key. On validation failure nothing is written.
func (s *Store) Add(ctx context.Context, collection string, rec models.Record) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !knownCollection(collection) {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}

	now := time.Now().UTC()
	rec.Touch(now)
	if rules := validation.ForRecord(rec); len(rules) > 0 {
		return 0, validation.NewError(rules)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add tx: %w", err)
	}
	defer tx.Rollback()

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal %s record: %w", collection, err)
	}

	stamp := now.Format(time.RFC3339Nano)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (data, created_at, updated_at) VALUES (?, ?, ?)", collection),
		string(data), stamp, stamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", collection, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve %s id: %w", collection, err)
	}

	// The document carries its own id; rewrite it now that the key is
	// known.
	rec.SetID(id)
	data, err = json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal %s record: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", collection),
		string(data), id,
	); err != nil {
		return 0, fmt.Errorf("store %s id: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add to %s: %w", collection, err)
	}
	return id, nil
}

// Update re-validates and persists the full record. The record's id
// must already exist.
func (s *Store) Update(ctx context.Context, collection string, rec models.Record) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !knownCollection(collection) {
		return fmt.Errorf("unknown collection %q", collection)
	}
	id := rec.GetID()
	if id <= 0 {
		return NotFoundError(collection, id)
	}

	now := time.Now().UTC()
	rec.Touch(now)
	if rules := validation.ForRecord(rec); len(rules) > 0 {
		return validation.NewError(rules)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", collection), id,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError(collection, id)
	}
	if err != nil {
		return fmt.Errorf("check %s existence: %w", collection, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = ?, updated_at = ? WHERE id = ?", collection),
		string(data), now.Format(time.RFC3339Nano), id,
	); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}

	return tx.Commit()
}

// Delete removes a record by key.
func (s *Store) Delete(ctx context.Context, collection string, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !knownCollection(collection) {
		return fmt.Errorf("unknown collection %q", collection)
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	if n == 0 {
		return NotFoundError(collection, id)
	}
	return nil
}

// GetRaw fetches one record document by key.
func (s *Store) GetRaw(ctx context.Context, collection string, id int64) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !knownCollection(collection) {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", collection), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError(collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get from %s: %w", collection, err)
	}
	return json.RawMessage(data), nil
}

// ListOptions controls GetAll ordering and truncation.
type ListOptions struct {
	SortBy    string
	SortOrder string // "asc" (default) or "desc"
	Limit     int    // 0 means no limit
}

var fieldNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ListRaw returns all record documents, optionally sorted on a named
// field (stable: ties break on key order) and truncated.
func (s *Store) ListRaw(ctx context.Context, collection string, opts ListOptions) ([]json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !knownCollection(collection) {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	query := fmt.Sprintf("SELECT data FROM %s", collection)
	var args []any
	if opts.SortBy != "" {
		if !fieldNameRe.MatchString(opts.SortBy) {
			return nil, fmt.Errorf("invalid sort field %q", opts.SortBy)
		}
		dir := "ASC"
		if opts.SortOrder == "desc" {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY json_extract(data, ?) %s, id ASC", dir)
		args = append(args, "$."+opts.SortBy)
	} else {
		query += " ORDER BY id ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ?"
	args = append(args, limit)

	return s.queryRaw(ctx, collection, query, args...)
}

// ByIndexRaw performs an exact-match lookup against a declared
// secondary index.
func (s *Store) ByIndexRaw(ctx context.Context, collection, indexName string, value any) ([]json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	idx, ok := findIndex(collection, indexName)
	if !ok {
		return nil, IndexMissingError(collection, indexName)
	}
	query := fmt.Sprintf(
		"SELECT data FROM %s WHERE json_extract(data, ?) = ? ORDER BY id ASC", collection)
	return s.queryRaw(ctx, collection, query, idx.Path, value)
}

// SearchRaw performs a case-insensitive substring match over a declared
// text index, returning matches in the index's natural order.
func (s *Store) SearchRaw(ctx context.Context, collection, indexName, substring string, limit int) ([]json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	idx, ok := findIndex(collection, indexName)
	if !ok || !idx.Text {
		return nil, IndexMissingError(collection, indexName)
	}
	if limit <= 0 {
		limit = -1
	}
	query := fmt.Sprintf(`
		SELECT data FROM %s
		WHERE instr(lower(json_extract(data, ?)), lower(?)) > 0
		ORDER BY json_extract(data, ?) COLLATE NOCASE ASC, id ASC
		LIMIT ?`, collection)
	return s.queryRaw(ctx, collection, query, idx.Path, substring, idx.Path, limit)
}

func (s *Store) queryRaw(ctx context.Context, collection, query string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", collection, err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !knownCollection(collection) {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", collection)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Clear removes every record in a collection and returns how many were
// removed.
func (s *Store) Clear(ctx context.Context, collection string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !knownCollection(collection) {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", collection))
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", collection, err)
	}
	return n, nil
}

// SkippedRecord identifies one record rejected during BulkAdd.
type SkippedRecord struct {
	Index int
	Rules []string
}

// BulkResult reports the outcome of a BulkAdd.
type BulkResult struct {
	IDs     []int64
	Skipped []SkippedRecord
}

// BulkAdd validates each record independently and persists the valid
// ones in a single transaction. Invalid records are skipped, not
// aborting the batch, and logged.
func (s *Store) BulkAdd(ctx context.Context, collection string, recs []models.Record) (BulkResult, error) {
	var result BulkResult
	if err := s.ready(); err != nil {
		return result, err
	}
	if !knownCollection(collection) {
		return result, fmt.Errorf("unknown collection %q", collection)
	}

	now := time.Now().UTC()
	type pending struct {
		rec  models.Record
		data []byte
	}
	var valid []pending
	for i, rec := range recs {
		rec.Touch(now)
		if rules := validation.ForRecord(rec); len(rules) > 0 {
			logger.Warn("bulk add: skipping invalid record",
				"collection", collection, "index", i, "rules", rules)
			result.Skipped = append(result.Skipped, SkippedRecord{Index: i, Rules: rules})
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{
				Index: i, Rules: []string{fmt.Sprintf("unserializable record: %v", err)},
			})
			continue
		}
		valid = append(valid, pending{rec: rec, data: data})
	}

	if len(valid) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin bulk add tx: %w", err)
	}
	defer tx.Rollback()

	stamp := now.Format(time.RFC3339Nano)
	for _, p := range valid {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (data, created_at, updated_at) VALUES (?, ?, ?)", collection),
			string(p.data), stamp, stamp,
		)
		if err != nil {
			return BulkResult{}, fmt.Errorf("bulk insert into %s: %w", collection, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return BulkResult{}, fmt.Errorf("resolve %s id: %w", collection, err)
		}
		p.rec.SetID(id)
		data, err := json.Marshal(p.rec)
		if err != nil {
			return BulkResult{}, fmt.Errorf("marshal %s record: %w", collection, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", collection),
			string(data), id,
		); err != nil {
			return BulkResult{}, fmt.Errorf("store %s id: %w", collection, err)
		}
		result.IDs = append(result.IDs, id)
	}

	if err := tx.Commit(); err != nil {
		return BulkResult{}, fmt.Errorf("commit bulk add to %s: %w", collection, err)
	}
	return result, nil
}

// GetSetting returns the stored value for key, or def when absent.
func (s *Store) GetSetting(ctx context.Context, key, def string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Settings returns every stored key/value pair.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// ClearSettings drops every stored setting (used by full reset).
func (s *Store) ClearSettings(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM settings")
	if err != nil {
		return 0, fmt.Errorf("clear settings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Get decodes one record by key into its concrete type.
func Get[T any](ctx context.Context, s *Store, collection string, id int64) (*T, error) {
	raw, err := s.GetRaw(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%d: %w", collection, id, err)
	}
	return &out, nil
}

// GetAll decodes every record in a collection.
func GetAll[T any](ctx context.Context, s *Store, collection string, opts ListOptions) ([]*T, error) {
	raws, err := s.ListRaw(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](collection, raws)
}

// GetByIndex decodes the records matching an indexed field value.
func GetByIndex[T any](ctx context.Context, s *Store, collection, indexName string, value any) ([]*T, error) {
	raws, err := s.ByIndexRaw(ctx, collection, indexName, value)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](collection, raws)
}

// Search decodes the records whose indexed text field contains the
// substring, case-insensitively.
func Search[T any](ctx context.Context, s *Store, collection, indexName, substring string, limit int) ([]*T, error) {
	raws, err := s.SearchRaw(ctx, collection, indexName, substring, limit)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](collection, raws)
}

func decodeAll[T any](collection string, raws []json.RawMessage) ([]*T, error) {
	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", collection, err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
