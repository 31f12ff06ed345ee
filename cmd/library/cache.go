package library

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Cache is a Lister that keeps directory listings until the directory
// changes on disk. Failed listings are never cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]string
	watcher *fsnotify.Watcher
	log     *slog.Logger
	done    chan struct{}
	stopped chan struct{}
}

// NewCache starts an fsnotify watcher backing the cache. Close releases it.
func NewCache(log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	c := &Cache{
		entries: make(map[string][]string),
		watcher: fsw,
		log:     log,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.watch()
	return c, nil
}

// List returns the cached listing of dir, reading it on a miss.
func (c *Cache) List(dir string) ([]string, error) {
	dir = filepath.Clean(dir)

	c.mu.Lock()
	names, ok := c.entries[dir]
	c.mu.Unlock()
	if ok {
		return slices.Clone(names), nil
	}

	// Watch before reading so a change during the read still invalidates.
	if err := c.watcher.Add(dir); err != nil {
		c.log.Debug("not caching listing", "dir", dir, "error", err)
		return readNames(dir)
	}

	names, err := readNames(dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[dir] = names
	c.mu.Unlock()

	return slices.Clone(names), nil
}

// Cached reports whether dir currently has a cached listing.
func (c *Cache) Cached(dir string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[filepath.Clean(dir)]
	return ok
}

// Invalidate drops the cached listing of dir.
func (c *Cache) Invalidate(dir string) {
	dir = filepath.Clean(dir)
	c.mu.Lock()
	_, ok := c.entries[dir]
	delete(c.entries, dir)
	c.mu.Unlock()
	if ok {
		c.log.Debug("listing invalidated", "dir", dir)
	}
}

// Close stops the watcher.
func (c *Cache) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	close(c.done)
	err := c.watcher.Close()
	<-c.stopped
	return err
}

func (c *Cache) watch() {
	defer close(c.stopped)
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			// Either an entry of a watched directory or the directory itself.
			c.Invalidate(filepath.Dir(event.Name))
			c.Invalidate(event.Name)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn("library watcher error", "error", err)
		case <-c.done:
			return
		}
	}
}
