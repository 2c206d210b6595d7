package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the inbox and adds files that are
// created or written until ctx is cancelled. A file is ingested once it has
// seen no events for the debounce interval, so partially written files are
// not picked up early.
//
// New directories created at runtime are added to the watch list and their
// existing files ingested.
func (in *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, in.root); err != nil {
		return err
	}

	in.logger.Info("inbox: watching", slog.String("root", in.root))

	tick := in.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	// path -> time of the last event seen for it.
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			in.logger.Info("inbox: stopped")
			return nil

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < in.debounce {
					continue
				}
				delete(pending, path)
				in.ingest(ctx, path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored(filepath.Base(ev.Name)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						in.logger.Warn("inbox: watch new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						in.logger.Debug("inbox: watching new dir", slog.String("path", ev.Name))
					}
					if syncErr := in.syncDir(ctx, ev.Name); syncErr != nil {
						in.logger.Warn("inbox: sync new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", syncErr.Error()))
					}
					continue
				}
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[ev.Name] = time.Now()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Stored items outlive their source file.
				delete(pending, ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
