package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a Catalog whenever its backing file changes. A document
// that fails to parse is logged and the previous contents stay in place.
type Watcher struct {
	path     string
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *logrus.Entry

	mu       sync.Mutex
	timer    *time.Timer
	onReload func(Document)
}

// NewWatcher watches the directory holding path. Editors often replace a
// file rather than write it, so the file itself is not watched.
func NewWatcher(path string, c *Catalog, onReload func(Document)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		catalog:  c,
		watcher:  fw,
		debounce: defaultDebounce,
		log:      logger.WithComponent("catalog-watcher"),
		onReload: onReload,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("catalog watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	doc, err := LoadFile(w.path)
	if err != nil {
		w.log.WithError(err).Warn("keeping previous catalog")
		return
	}
	w.catalog.Replace(doc)
	w.log.Infof("catalog reloaded: %d tools", len(doc.Tools))
	if w.onReload != nil {
		w.onReload(doc)
	}
}
