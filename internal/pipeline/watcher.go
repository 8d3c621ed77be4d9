package pipeline

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/productiverage/cssminifier/internal/cache"
)

// Watcher proactively evicts cache entries when their backing file changes,
// grounded on standardbeagle-lci's internal/indexing FileWatcher. Since
// imports never cross folders (spec section 1's non-goal), one non-recursive
// fsnotify watch on the served root is enough: a changed file's relative
// path is just its base name, which is exactly the cache key a request for
// that file would use.
//
// Eviction here is an optimisation, not a correctness requirement: Service.Process
// already re-validates freshness against the file system on every request
// (component K's freshness gate), so a missed or delayed event only costs one
// extra stale-then-regenerate round trip rather than serving wrong content.
type Watcher struct {
	fsw    *fsnotify.Watcher
	caches []*cache.LayeredCache
	sink   logr.Logger
	done   chan struct{}
}

// NewWatcher starts watching root and evicting relativePath keys from every
// given cache on any write, create, remove or rename event under it.
func NewWatcher(root string, sink logr.Logger, caches ...*cache.LayeredCache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, caches: caches, sink: sink, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sink.Error(err, "watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	relativePath := filepath.Base(event.Name)
	for _, c := range w.caches {
		c.Remove(relativePath)
	}
	w.sink.Info("evicted cache entry after file system change", "path", relativePath, "op", event.Op.String())
}

// Close stops the underlying fsnotify watch.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
