// Package watcher re-ingests training documents when they change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a training directory tree and ingests files on create
// or write events.
type Watcher struct {
	dir      string
	training driving.TrainingService
	debounce time.Duration
	onResult func(driving.TrainingResult)

	mu      sync.Mutex
	gen     uint64
	pending map[string]pendingFile
}

// pendingFile is a scheduled ingestion. gen identifies the timer that
// currently owns the path.
type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before ingesting a changed file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultHandler registers a callback invoked after each ingestion.
func WithResultHandler(fn func(driving.TrainingResult)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher for dir.
func New(dir string, training driving.TrainingService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		training: training,
		debounce: DefaultDebounce,
		pending:  make(map[string]pendingFile),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("%w: training directory %s", domain.ErrNotFound, w.dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}

	// Pending timers block on ready until Run returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan string, 16)
	defer w.stopPending()

	logger.Info("Watching %s for changes", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path, dir := w.handleFsEvent(event)
			if dir != "" {
				if err := w.addTree(fw, dir); err != nil {
					logger.Warn("Failed to watch %s: %v", dir, err)
				}
				continue
			}
			if path != "" {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case path := <-ready:
			result := w.training.ProcessFile(ctx, w.dir, path)
			if result.OK() {
				logger.Info("Re-ingested %s (%d chunks)", result.Filename, result.Chunks)
			} else {
				logger.Warn("Failed to ingest %s: %v", result.Filename, result.Err)
			}
			if w.onResult != nil {
				w.onResult(result)
			}
		}
	}
}

// handleFsEvent classifies an event. It returns a file to ingest, or a new
// directory to start watching, or neither.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (file, dir string) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", ""
	}
	if isHidden(w.dir, event.Name) {
		return "", ""
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", ""
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			return "", event.Name
		}
		return "", ""
	}
	if !info.Mode().IsRegular() || domain.MIMETypeForPath(event.Name) == "" {
		return "", ""
	}
	return event.Name, ""
}

func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.pending[path] = pendingFile{
		gen: gen,
		timer: time.AfterFunc(w.debounce, func() {
			w.fire(ctx, path, gen, ready)
		}),
	}
}

// fire hands path to Run unless a later schedule or stopPending has
// replaced the timer with generation gen.
func (w *Watcher) fire(ctx context.Context, path string, gen uint64, ready chan<- string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || p.gen != gen {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case ready <- path:
	case <-ctx.Done():
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.dir && isHidden(w.dir, path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path below root starts with a dot.
func isHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
