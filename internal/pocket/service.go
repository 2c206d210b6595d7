// Package pocket implements the add operations of Pocket Pick: storing a
// snippet from inline text or from a file on disk.
package pocket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/store"
	"github.com/starford/pocketpick/internal/tags"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report failed adds.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service adds items to a pocket database. It holds no connection; every
// call opens the database named by its command and closes it before
// returning.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new pocket service.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stores a new item built from cmd.Text.
func (s *Service) Add(ctx context.Context, cmd models.AddCommand) (*models.PocketItem, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return s.insert(ctx, cmd.DBPath, cmd.ID, cmd.Text, cmd.Tags)
}

// AddFile stores a new item whose text is the full content of cmd.FilePath.
// A missing file is reported as apperr.ErrFileNotFound without opening the
// database.
func (s *Service) AddFile(ctx context.Context, cmd models.AddFileCommand) (*models.PocketItem, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	text, err := s.readText(cmd.FilePath)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, cmd.DBPath, cmd.ID, text, cmd.Tags)
}

// readText returns the file content as UTF-8 text.
func (s *Service) readText(path string) (string, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Error("file not found", slog.String("path", path))
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrFileNotFound, path, err)
	case err != nil:
		s.logger.Error("read file failed", slog.String("path", path), slog.String("error", err.Error()))
		return "", fmt.Errorf("pocket: stat %s: %w", path, err)
	case !info.Mode().IsRegular():
		s.logger.Error("file not found", slog.String("path", path), slog.String("reason", "not a regular file"))
		return "", fmt.Errorf("%w: %s", apperr.ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("read file failed", slog.String("path", path), slog.String("error", err.Error()))
		return "", fmt.Errorf("pocket: read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		s.logger.Error("read file failed", slog.String("path", path), slog.String("error", "invalid utf-8"))
		return "", fmt.Errorf("pocket: read %s: content is not valid UTF-8", path)
	}
	return string(data), nil
}

// insert normalizes tags, stamps the item and commits it to the database at
// dbPath. The returned item is exactly what was written.
func (s *Service) insert(ctx context.Context, dbPath, id, text string, rawTags []string) (*models.PocketItem, error) {
	item := models.PocketItem{
		ID:   id,
		Text: text,
		Tags: tags.Normalize(rawTags),
		// Stored with fixed nanosecond precision in UTC, so this value
		// survives a format/parse cycle unchanged.
		Created: s.now().UTC().Round(0),
	}

	db, err := store.Init(dbPath)
	if err != nil {
		s.logger.Error("add item failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}
	defer db.Close()

	if err := db.InsertItem(ctx, item); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			s.logger.Error("item already exists", slog.String("id", id))
		} else {
			s.logger.Error("add item failed", slog.String("id", id), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.logger.Debug("item added", slog.String("id", id), slog.Int("tags", len(item.Tags)))
	return &item, nil
}
