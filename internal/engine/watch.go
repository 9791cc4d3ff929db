package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/butter/internal/config"
)

// WatchDebounce is how long Watch waits after the last change before
// re-running.
const WatchDebounce = 100 * time.Millisecond

// Watch runs the analysis once and again after every change to a query
// file, the schema file or the project file, passing each outcome to fn.
// It blocks until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, fn func(*Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, e.queriesDir); err != nil {
		// Don't fail - the directory may be created later
		e.logger.Warn("failed to watch queries directory", "path", e.queriesDir, "error", err)
	}
	if e.schemaFile != "" {
		if err := watcher.Add(filepath.Dir(e.schemaFile)); err != nil {
			e.logger.Warn("failed to watch schema directory", "path", e.schemaFile, "error", err)
		}
	}

	fn(e.Run(ctx))

	timer := time.NewTimer(WatchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
				}
			}
			if !e.relevant(event) {
				continue
			}
			e.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(WatchDebounce)

		case <-timer.C:
			fn(e.Run(ctx))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// relevant reports whether a change should trigger a re-run.
func (e *Engine) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if isQueryFile(event.Name) {
		return true
	}
	if e.schemaFile != "" && filepath.Clean(event.Name) == filepath.Clean(e.schemaFile) {
		return true
	}
	base := filepath.Base(event.Name)
	return base == config.ConfigFileName || base == config.ConfigFileNameAlt || base == config.ConfigFileNameTOML
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
