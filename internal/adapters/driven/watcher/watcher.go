// Package watcher feeds filesystem changes under a share root into the
// ingestion pipeline.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Watcher turns create and write events under the share root into
// IngestFile calls. Directories are watched recursively; new directories
// are added as they appear.
type Watcher struct {
	ingestion driving.IngestionService
	share     *domain.Share
	fw        *fsnotify.Watcher
}

// New creates a watcher over the share's root path.
func New(ingestion driving.IngestionService, share *domain.Share) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{
		ingestion: ingestion,
		share:     share,
		fw:        fw,
	}

	if err := w.addRecursive(share.RootPath); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run ingests everything already present, then processes events until the
// context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.scanExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if isHidden(event.Name) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone already; the next event for the path will catch up.
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addRecursive(event.Name); err != nil {
				logger.Warn("watching new directory %q: %v", event.Name, err)
			}
			if err := w.scanDir(ctx, event.Name); err != nil {
				logger.Warn("scanning new directory %q: %v", event.Name, err)
			}
		}
		return
	}

	w.ingest(ctx, event.Name)
}

// scanExisting ingests files already present under the root, so files
// dropped while the watcher was down are not missed.
func (w *Watcher) scanExisting(ctx context.Context) error {
	return w.scanDir(ctx, w.share.RootPath)
}

func (w *Watcher) scanDir(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if isHidden(path) {
			if d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			w.ingest(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	relative, err := filepath.Rel(w.share.RootPath, path)
	if err != nil {
		logger.Warn("resolving path %q: %v", path, err)
		return
	}
	relative = filepath.ToSlash(relative)

	if _, err := w.ingestion.IngestFile(ctx, w.share, relative); err != nil {
		logger.Warn("ingesting %q: %v", relative, err)
		return
	}
	logger.Debug("queued extraction for %q", relative)
}

// addRecursive watches dir and every directory beneath it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(path) && path != dir {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %q: %w", path, err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
