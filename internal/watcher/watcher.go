// Package watcher watches per-corpus document directories and feeds new or
// changed files to the ingestion pipeline.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Root is one watched directory tree bound to a corpus.
type Root struct {
	Dir    string
	Corpus models.Corpus
}

// Watcher watches corpus directories and invokes a callback on file changes.
type Watcher struct {
	roots      []Root
	extensions []string
	onIngest   func(path string, corpus models.Corpus)
	debounce   time.Duration
	watcher    *fsnotify.Watcher

	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	dirCorpus   map[string]models.Corpus // watched dir -> corpus
	started     bool
	logger      *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher. onIngest is called with a debounced path and
// its corpus when a file with an allowed extension is created or written.
func NewWatcher(roots []Root, extensions []string, onIngest func(path string, corpus models.Corpus), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		roots:       roots,
		extensions:  extensions,
		onIngest:    onIngest,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		dirCorpus:   make(map[string]models.Corpus),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	for _, root := range w.roots {
		if err := w.addTreeLocked(root.Dir, root.Corpus); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	if w.logger != nil {
		w.logger.Debug("watcher started", zap.Int("roots", len(w.roots)))
	}
	go w.run(ctx)
	return nil
}

// addTreeLocked registers dir and all its subdirectories under corpus.
func (w *Watcher) addTreeLocked(dir string, corpus models.Corpus) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.dirCorpus[path] = corpus
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		w.started = false
		w.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	corpus, ok := w.corpusFor(event.Name)
	if !ok {
		return
	}
	if info.IsDir() {
		// New subdirectory under a watched root: watch it too.
		w.mu.Lock()
		if err := w.addTreeLocked(event.Name, corpus); err != nil && w.logger != nil {
			w.logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
		}
		w.mu.Unlock()
		return
	}
	if !w.extensionAllowed(filepath.Ext(event.Name)) {
		return
	}
	w.scheduleIngest(event.Name, corpus)
}

// corpusFor resolves the corpus owning a path via its watched parent directory.
func (w *Watcher) corpusFor(path string) (models.Corpus, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	corpus, ok := w.dirCorpus[filepath.Dir(path)]
	if ok {
		return corpus, true
	}
	// Directory events arrive for the directory itself.
	corpus, ok = w.dirCorpus[path]
	if ok {
		return corpus, true
	}
	for _, root := range w.roots {
		if strings.HasPrefix(path, root.Dir+string(filepath.Separator)) {
			return root.Corpus, true
		}
	}
	return "", false
}

// scheduleIngest debounces rapid write bursts for the same file.
func (w *Watcher) scheduleIngest(path string, corpus models.Corpus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if w.logger != nil {
			w.logger.Debug("watcher ingesting file",
				zap.String("path", path), zap.String("corpus", string(corpus)))
		}
		w.onIngest(path, corpus)
	})
}

func (w *Watcher) extensionAllowed(ext string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, a := range w.extensions {
		if strings.ToLower(a) == ext {
			return true
		}
	}
	return false
}
