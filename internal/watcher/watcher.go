// Package watcher turns file-system create events in the vault into
// file-tree entities and hands them to a handler, one at a time.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/canvasnest/internal/models"
)

// Tree resolves paths reported by the watcher.
type Tree interface {
	Lookup(ctx context.Context, path string) (*models.Entry, error)
	Rel(abs string) (string, error)
}

// Handler is called for every created entity. It runs on the watcher
// goroutine, so the next event is not read until it returns.
type Handler func(ctx context.Context, e *models.Entry)

// Watch starts an fsnotify watcher on the vault root and delivers create
// events until ctx is cancelled. Dot-directories such as .obsidian and
// .git are neither watched nor reported. New directories are added to the
// watch list as they appear.
func Watch(ctx context.Context, tree Tree, vaultRoot string, logger *slog.Logger, h Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}

			absPath := ev.Name
			if hidden(vaultRoot, absPath) {
				continue
			}

			if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
				if addErr := addDirsRecursive(w, absPath); addErr != nil {
					logger.Warn("watcher: add new dir failed",
						slog.String("path", absPath),
						slog.String("error", addErr.Error()))
				} else {
					logger.Debug("watcher: watching new dir", slog.String("path", absPath))
				}
			}

			rel, relErr := tree.Rel(absPath)
			if relErr != nil {
				continue
			}
			entry, lookupErr := tree.Lookup(ctx, rel)
			if lookupErr != nil {
				logger.Warn("watcher: lookup failed", slog.String("path", rel), slog.String("error", lookupErr.Error()))
				continue
			}
			if entry == nil {
				logger.Debug("watcher: entry vanished", slog.String("path", rel))
				continue
			}
			h(ctx, entry)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// hidden reports whether p, relative to root, has a dot-prefixed segment.
func hidden(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
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
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
