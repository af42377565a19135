package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchService watches the ecosystem manifest and re-runs a workflow when it
// changes. Rapid editor write bursts are debounced.
type WatchService struct {
	engine *Engine
}

// NewWatchService creates a WatchService over engine.
func NewWatchService(engine *Engine) *WatchService {
	return &WatchService{engine: engine}
}

// Watch blocks until ctx is cancelled, invoking callback after each debounced
// manifest change.
func (s *WatchService) Watch(ctx context.Context, callback func() error) error {
	deps := s.engine.Deps()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	manifestPath := deps.Manifest.Path()
	if err := watcher.Add(manifestPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", manifestPath, err)
	}
	// Also watch the directory for when the file is replaced (atomic saves
	// rename over it).
	if err := watcher.Add(filepath.Dir(manifestPath)); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(manifestPath), err)
	}

	deps.UI.ShowSuccess("Watching " + manifestPath + " (Ctrl+C to stop)")

	var debounceTimer *time.Timer
	const debounceDelay = 1 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != manifestPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if _, err := os.Stat(manifestPath); err != nil {
					deps.UI.ShowWarning("Manifest Missing", "The manifest was deleted or is inaccessible")
					return
				}
				deps.UI.ShowSuccess("Manifest changed; re-running")
				if err := callback(); err != nil {
					deps.UI.ShowError("Watch Run Failed", err.Error())
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			deps.UI.ShowWarning("Watcher Error", err.Error())
		}
	}
}
