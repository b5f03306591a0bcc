package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is how long the watcher waits for writes to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ErrNothingToWatch indicates none of the config directories exist
var ErrNothingToWatch = errors.New("no config directories to watch")

// reloadPatterns select the file names whose changes trigger a reload
var reloadPatterns = []glob.Glob{
	glob.MustCompile("*.yaml"),
	glob.MustCompile("*.yml"),
}

// Watch reloads the config whenever a YAML file in one of the config
// directories changes, until ctx is done or Close is called. Reload failures
// are logged and leave the previous config active.
func (m *Manager) Watch(ctx context.Context) error {
	dirs := m.watchDirs()
	if len(dirs) == 0 {
		return ErrNothingToWatch
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("config watch %s: %w", dir, err)
		}
	}

	m.logger.Debug("watching config", "dirs", dirs)
	go m.watchLoop(ctx, watcher)
	return nil
}

// watchDirs returns the existing directories that hold a config layer
func (m *Manager) watchDirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	for _, l := range m.layers() {
		dir := filepath.Dir(l.path)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopWatch:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isReloadEvent(event) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DefaultDebounce, m.reloadAndLog)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watch error", "error", err)
		}
	}
}

func isReloadEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	for _, pattern := range reloadPatterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

func (m *Manager) reloadAndLog() {
	if err := m.Reload(); err != nil {
		m.logger.Warn("config reload failed", "error", err)
		return
	}
	m.logger.Info("config reloaded")
}
