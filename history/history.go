// Package history keeps the list of recently opened chat streams in a
// SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one remembered stream.
type Entry struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"stream_id"`
	URL       string    `json:"url"`
	OpenedAt  time.Time `json:"opened_at"`
	OpenCount int       `json:"open_count"`
}

// DB wraps a sql.DB holding the recent chats table.
type DB struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS recent_chats (
    id TEXT PRIMARY KEY,
    stream_id TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL,
    opened_at INTEGER NOT NULL,
    open_count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_recent_chats_opened_at ON recent_chats(opened_at DESC);
`

// Open creates or opens the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{db: sqlDB, path: path, now: time.Now}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory database for tests.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every pooled connection would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{db: sqlDB, path: ":memory:", now: time.Now}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(schema)
	return err
}

// SetClock replaces the time source used for new records.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record remembers that streamID was opened at url. Opening the same stream
// again moves it to the top and bumps its count.
func (d *DB) Record(ctx context.Context, streamID, url string) error {
	if streamID == "" {
		return fmt.Errorf("stream id is required")
	}
	_, err := d.db.ExecContext(ctx, `
INSERT INTO recent_chats (id, stream_id, url, opened_at, open_count)
VALUES (?, ?, ?, ?, 1)
ON CONFLICT(stream_id) DO UPDATE SET
    url = excluded.url,
    opened_at = excluded.opened_at,
    open_count = recent_chats.open_count + 1`,
		uuid.New().String(), streamID, url, d.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s: %w", streamID, err)
	}
	return nil
}

// Recent returns at most limit entries, newest first. A non-positive limit
// returns everything.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, stream_id, url, opened_at, open_count FROM recent_chats ORDER BY opened_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recent chats: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var opened int64
		if err := rows.Scan(&e.ID, &e.StreamID, &e.URL, &opened, &e.OpenCount); err != nil {
			return nil, fmt.Errorf("scanning recent chat: %w", err)
		}
		e.OpenedAt = time.Unix(0, opened).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps only the newest keep entries.
func (d *DB) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := d.db.ExecContext(ctx, `
DELETE FROM recent_chats WHERE id NOT IN (
    SELECT id FROM recent_chats ORDER BY opened_at DESC LIMIT ?
)`, keep)
	if err != nil {
		return fmt.Errorf("pruning recent chats: %w", err)
	}
	return nil
}
