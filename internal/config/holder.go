// Package config holds the test definitions shared by concurrent requests and
// reloads them from disk.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/splithub/splithub/internal/assigner"
)

type Holder struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	tests []assigner.TestDefinition
}

// Load reads path and returns a Holder for it.
func Load(path string, logger *slog.Logger) (*Holder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Holder{path: path, logger: logger}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Static returns a Holder that never reloads.
func Static(tests []assigner.TestDefinition) *Holder {
	return &Holder{tests: tests, logger: slog.Default()}
}

func (h *Holder) Path() string {
	return h.path
}

// Tests returns the current definitions. Callers must not modify the slice.
func (h *Holder) Tests() []assigner.TestDefinition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tests
}

// Reload re-reads the file. On error the previous definitions stay active.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}

	tests, err := assigner.LoadFile(h.path, h.logger)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.tests = tests
	h.mu.Unlock()

	h.logger.Info("loaded test definitions", "path", h.path, "count", len(tests))
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		return fmt.Errorf("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	target := filepath.Clean(h.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := h.Reload(); err != nil {
				h.logger.Warn("config reload failed, keeping previous tests", "path", h.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("config watcher error", "error", err)
		}
	}
}
