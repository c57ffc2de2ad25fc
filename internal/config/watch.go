package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor produces for one save.
const reloadDelay = 100 * time.Millisecond

// Watch calls fn with the freshly parsed configuration every time the file at
// path changes, until ctx is cancelled. The parent directory is watched so
// atomic rename-on-save is picked up. Invalid files are logged and skipped.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	target := filepath.Clean(path)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(reloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Config] Watcher error: %v", err)
		case <-pending:
			pending = nil
			cfg, err := LoadFrom(path)
			if err != nil {
				log.Printf("[Config] Ignoring invalid config change: %v", err)
				continue
			}
			log.Printf("[Config] Reloaded %s", path)
			fn(cfg)
		}
	}
}
