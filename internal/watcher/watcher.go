// Package watcher rebuilds model indexes when their dump files change.
//
// It can be used standalone via `ifcq watch` or embedded in `ifcq serve`.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
)

// Watcher monitors dump files and republishes their models on change.
type Watcher struct {
	files    map[string]string // absolute dump path -> model id
	provider *extract.FileProvider
	registry *index.Registry
	store    *index.Store
	extract  extract.Options

	debounceDelay time.Duration
	logger        *slog.Logger

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	onReindex func(modelID string, snap *index.Snapshot, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	// Files maps dump paths to model ids. An empty id is derived from the dump.
	Files    map[string]string
	Provider *extract.FileProvider
	Registry *index.Registry
	// Store is optional; when set every rebuild is persisted.
	Store         *index.Store
	Extract       extract.Options
	DebounceDelay time.Duration // Default: 200ms
	Logger        *slog.Logger
	OnReindex     func(modelID string, snap *index.Snapshot, err error)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("at least one dump file is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	files := make(map[string]string, len(cfg.Files))
	for path, id := range cfg.Files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files[abs] = id
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		files:         files,
		provider:      cfg.Provider,
		registry:      cfg.Registry,
		store:         cfg.Store,
		extract:       cfg.Extract,
		debounceDelay: debounce,
		logger:        logger.With("component", "watcher"),
		pending:       make(map[string]time.Time),
		onReindex:     cfg.OnReindex,
	}, nil
}

// Start watches the dump files until ctx is cancelled. Directories are
// watched rather than files so that editors which replace a file by rename
// are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	dirs := make(map[string]bool)
	for path := range w.files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", "dir", dir)
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Reindex rebuilds one dump file immediately.
func (w *Watcher) Reindex(ctx context.Context, path string) (*index.Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	modelID, ok := w.files[abs]
	if !ok {
		return nil, fmt.Errorf("%s is not a watched dump", path)
	}
	return index.BuildFile(ctx, w.provider, w.registry, w.store, index.FileBuild{
		Path:    abs,
		ModelID: modelID,
		Options: w.extract,
	})
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	w.logger.Debug("event", "op", event.Op.String(), "path", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.scheduleReindex(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The last published index stays current until the file reappears.
		w.logger.Warn("dump file removed; keeping last index", "path", path)
	}
}

func (w *Watcher) scheduleReindex(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// processDebounced rebuilds files whose last event is older than the
// debounce delay.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		snap, err := w.Reindex(ctx, path)
		modelID := w.files[path]
		if snap != nil {
			modelID = snap.ModelID
		}
		if w.onReindex != nil {
			w.onReindex(modelID, snap, err)
		}
		if err != nil {
			w.logger.Error("reindex failed", "path", path, "error", err)
			continue
		}
		w.logger.Info("reindexed", "model", snap.ModelID, "generation", snap.Generation, "triples", len(snap.Triples))
	}
}
