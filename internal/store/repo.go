package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
)

// InsertItem stores a new item in its own transaction. An existing id is
// reported as apperr.ErrAlreadyExists and leaves the stored row untouched.
func (db *DB) InsertItem(ctx context.Context, item models.PocketItem) error {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("store: encode tags: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO POCKET_PICK (id, created, text, tags) VALUES (?, ?, ?, ?)`,
		item.ID, item.Created.Format(models.TimeLayout), item.Text, string(tagsJSON))
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("store: insert %q: %w: %w", item.ID, apperr.ErrAlreadyExists, err)
		}
		return fmt.Errorf("store: insert %q: %w", item.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a SQLite primary key or unique
// constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
