// Package store provides the SQLite backing store for pocket items.
package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS POCKET_PICK (
	id      TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	text    TEXT NOT NULL,
	tags    TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_pocket_pick_created ON POCKET_PICK(created);
`

// DB wraps a sql.DB holding the POCKET_PICK table.
type DB struct {
	conn *sql.DB
}

// Init opens (or creates) the SQLite database at path and makes sure the
// item table exists.
func Init(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create db dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// dsn builds a file: URI for path. Every segment is escaped so '?', '#' and
// '%' stay part of the file name instead of starting the driver options.
func dsn(path string) string {
	segs := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "file:" + strings.Join(segs, "/") + "?_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
