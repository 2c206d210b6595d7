// Package inbox turns a drop folder into pocket items: every regular file
// placed under the folder is added with an id derived from its path.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/parser"
)

// Adder adds an item from a file.
type Adder interface {
	AddFile(ctx context.Context, cmd models.AddFileCommand) (*models.PocketItem, error)
}

// Callback is called after a file was added as an item.
type Callback func(item *models.PocketItem)

// Config configures an Inbox.
type Config struct {
	Root     string
	DBPath   string
	Tags     []string
	Debounce time.Duration
}

// Inbox ingests files from a directory tree.
type Inbox struct {
	root     string
	dbPath   string
	tags     []string
	debounce time.Duration
	adder    Adder
	logger   *slog.Logger
	cb       Callback
}

// New creates an Inbox rooted at cfg.Root, creating the directory if needed.
// cb may be nil.
func New(cfg Config, adder Adder, logger *slog.Logger, cb Callback) (*Inbox, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("inbox: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: create root: %w", err)
	}
	return &Inbox{
		root:     abs,
		dbPath:   cfg.DBPath,
		tags:     cfg.Tags,
		debounce: cfg.Debounce,
		adder:    adder,
		logger:   logger,
		cb:       cb,
	}, nil
}

// Root returns the absolute inbox directory.
func (in *Inbox) Root() string {
	return in.root
}

// ItemID derives the item id of the file at abs: its slash separated path
// relative to root with the extension removed ("notes/todo.md" -> "notes/todo").
func ItemID(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("inbox: %s is outside %s", abs, root)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)), nil
}

// Sync adds every file already present under the inbox. Files whose id is
// already stored are skipped.
func (in *Inbox) Sync(ctx context.Context) error {
	return in.syncDir(ctx, in.root)
}

func (in *Inbox) syncDir(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != dir && ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			in.ingest(ctx, path)
		}
		return nil
	})
}

// ingest adds one file. Failures are logged, not returned.
func (in *Inbox) ingest(ctx context.Context, path string) {
	id, err := ItemID(in.root, path)
	if err != nil {
		in.logger.Warn("inbox: skip file", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	item, err := in.adder.AddFile(ctx, models.AddFileCommand{
		ID:       id,
		FilePath: path,
		Tags:     in.fileTags(path),
		DBPath:   in.dbPath,
	})
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		in.logger.Debug("inbox: already stored", slog.String("id", id))
		return
	case errors.Is(err, apperr.ErrFileNotFound):
		// Removed before the debounce fired.
		in.logger.Debug("inbox: file vanished", slog.String("path", path))
		return
	case err != nil:
		in.logger.Warn("inbox: add failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	in.logger.Info("inbox: added", slog.String("id", item.ID), slog.String("path", path))
	if in.cb != nil {
		in.cb(item)
	}
}

// fileTags returns the configured inbox tags plus any tags declared inside a
// Markdown file.
func (in *Inbox) fileTags(path string) []string {
	out := append([]string(nil), in.tags...)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
	default:
		return out
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	return append(out, parser.Tags(data)...)
}

// ignored reports whether a file or directory name is hidden or an editor
// backup.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
