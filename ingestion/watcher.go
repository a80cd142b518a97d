package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/docent/core"
)

// DefaultSettleDelay is how long the watcher waits after the last event
// on a file before loading it.
const DefaultSettleDelay = 500 * time.Millisecond

// IngestFunc receives the documents loaded from changed files.
type IngestFunc func(ctx context.Context, docs []core.Document) error

// Watcher follows a document folder and its non-hidden subfolders and
// ingests files as they appear or change. Removals are ignored; indexed
// passages are never deleted.
type Watcher struct {
	dir     string
	ingest  IngestFunc
	settle  time.Duration
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSettleDelay sets how long events on a file must pause before it is loaded.
func WithSettleDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWatcher(dir string, ingest IngestFunc, opts ...WatcherOption) (*Watcher, error) {
	if ingest == nil {
		return nil, ErrIngestFuncRequired
	}

	w := &Watcher{
		dir:    dir,
		ingest: ingest,
		settle: DefaultSettleDelay,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher", "dir", dir)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = fw
	if _, err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return w, nil
}

// Run processes file events until ctx is done. Errors from loading or
// ingesting a batch are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.logger.Info("watching for documents")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			paths := w.handleEvent(event)
			if len(paths) == 0 {
				continue
			}
			for _, path := range paths {
				pending[path] = struct{}{}
			}
			timer.Reset(w.settle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			clear(pending)
			sort.Strings(paths)

			if err := w.flush(ctx, paths); err != nil {
				w.logger.Error("error ingesting changed files", "err", err)
			}
		}
	}
}

// flush loads every path and ingests what loaded. Files that fail to load
// do not prevent the others from being ingested.
func (w *Watcher) flush(ctx context.Context, paths []string) error {
	var docs []core.Document
	var errs []error
	for _, path := range paths {
		loaded, err := LoadFile(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, loaded...)
	}

	if len(docs) > 0 {
		w.logger.Info("ingesting changed files", "files", len(paths), "documents", len(docs))
		if err := w.ingest(ctx, docs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleEvent returns the files to load for an event. A new directory is
// watched and the supported files already inside it are returned.
func (w *Watcher) handleEvent(event fsnotify.Event) []string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}
	if isHidden(filepath.Base(event.Name)) {
		return nil
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		if !event.Has(fsnotify.Create) {
			return nil
		}
		files, err := w.addTree(event.Name)
		if err != nil {
			w.logger.Warn("failed to watch directory", "path", event.Name, "err", err)
		}
		return files
	}
	if !Supported(event.Name) {
		return nil
	}
	return []string{event.Name}
}

// addTree watches root and every non-hidden directory below it, skipping
// the same entries DirectoryLoader does, and returns the supported files
// found on the way.
func (w *Watcher) addTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
