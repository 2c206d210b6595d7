// Package testutil provides shared test helpers for pocket databases and input files.
package testutil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Row is a raw POCKET_PICK row with its tags column decoded.
type Row struct {
	ID      string
	Created string
	Text    string
	Tags    []string
}

// TestDBPath returns a database path inside a per-test temp directory.
// The file itself is not created.
func TestDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "pocket_pick.db")
}

// TestFile writes content to a temp file and returns its path.
func TestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadRows reads every row of the database at dbPath, bypassing the store
// package, ordered by id.
func ReadRows(t *testing.T, dbPath string) []Row {
	t.Helper()
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	rows, err := conn.Query(`SELECT id, created, text, tags FROM POCKET_PICK ORDER BY id`)
	if err != nil {
		t.Fatalf("query rows: %v", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var tagsRaw string
		if err := rows.Scan(&r.ID, &r.Created, &r.Text, &tagsRaw); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal([]byte(tagsRaw), &r.Tags); err != nil {
			t.Fatalf("tags column %q is not a JSON array: %v", tagsRaw, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

// ReadRowsIfExists is ReadRows for a database that may never have been
// created; a missing file yields no rows.
func ReadRowsIfExists(t *testing.T, dbPath string) []Row {
	t.Helper()
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return ReadRows(t, dbPath)
}
