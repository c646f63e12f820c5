package store

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StartWatcher reloads a document when its file changes on disk, so manual
// edits to streamers.json or custom_messages.json take effect without a
// restart. The service's own saves also trigger a reload; that re-read is
// idempotent. The watcher stops when ctx is cancelled.
func StartWatcher(ctx context.Context, accounts *AccountStore, messages *MessageStore) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the parent directories, not the files: atomic saves rename over
	// the files, which would silently detach a file-level watch.
	dirs := map[string]struct{}{
		filepath.Dir(accounts.Path()): {},
		filepath.Dir(messages.Path()): {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return err
		}
	}

	reload := func(path string) {
		var err error
		switch path {
		case accounts.Path():
			err = accounts.Reload()
		case messages.Path():
			err = messages.Reload()
		default:
			return
		}
		if err != nil {
			slog.Warn("store reload after file change failed", slog.String("path", path), slog.Any("err", err))
			return
		}
		slog.Debug("store reloaded after file change", slog.String("path", path))
	}

	go func() {
		defer func() {
			if err := w.Close(); err != nil {
				slog.Warn("failed to close store watcher", slog.Any("err", err))
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					reload(filepath.Clean(ev.Name))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("store watcher error", slog.Any("err", err))
			}
		}
	}()
	return nil
}
