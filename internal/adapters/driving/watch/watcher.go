// Package watch ingests documents dropped into an inbox directory.
//
// The watcher listens for create and write events with fsnotify, waits for
// a file to settle, then hands its bytes to the document service exactly as
// an upload would be processed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
	"github.com/custodia-labs/caresync/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Result reports the outcome of ingesting one file.
type Result struct {
	Path       string
	DocumentID string
	NumChunks  int
	Err        error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithDocumentType labels every ingested file with documentType.
func WithDocumentType(documentType string) Option {
	return func(w *Watcher) {
		w.documentType = documentType
	}
}

// WithInitialScan ingests files already present when Run starts.
func WithInitialScan(scan bool) Option {
	return func(w *Watcher) {
		w.initialScan = scan
	}
}

// WithResultHandler receives every ingestion result.
// The handler may be called from several goroutines.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.onResult = fn
		}
	}
}

// Watcher feeds new files in a directory to a DocumentService.
type Watcher struct {
	dir          string
	docs         driving.DocumentService
	exts         map[string]bool
	debounce     time.Duration
	documentType string
	initialScan  bool
	onResult     func(Result)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir. The directory must already exist.
func New(dir string, docs driving.DocumentService, opts ...Option) (*Watcher, error) {
	if docs == nil {
		return nil, fmt.Errorf("%w: document service is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: inbox %s: %w", domain.ErrInvalidInput, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: inbox %s is not a directory", domain.ErrInvalidInput, dir)
	}

	exts := make(map[string]bool)
	for _, ext := range docs.SupportedExtensions() {
		exts[strings.ToLower(ext)] = true
	}

	w := &Watcher{
		dir:      dir,
		docs:     docs,
		exts:     exts,
		debounce: DefaultDebounce,
		onResult: func(Result) {},
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the inbox until ctx is cancelled. Ingestions already
// scheduled when ctx ends are dropped; ones in flight are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s for %d extensions", w.dir, len(w.exts))

	if w.initialScan {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.stop()
				return nil
			}
			if w.accepts(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// scan schedules every supported file already in the inbox.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.supported(path) {
			w.schedule(ctx, path)
		}
	}
	return nil
}

// accepts reports whether an event should trigger ingestion.
func (w *Watcher) accepts(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if !w.supported(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// supported reports whether path names a visible file with an ingestible
// extension. Only the file name is checked so an inbox under a dot directory
// still works.
func (w *Watcher) supported(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.onResult(w.ingest(ctx, path))
	})
	w.pending[path] = timer
}

// stop cancels pending timers and waits for running ingestions.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// ingest reads path and processes it as an upload.
func (w *Watcher) ingest(ctx context.Context, path string) Result {
	res := Result{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("watch: %s vanished before ingestion", path)
		}
		res.Err = fmt.Errorf("reading %s: %w", path, err)
		return res
	}

	result, err := w.docs.ProcessDocument(ctx, data, filepath.Base(path), w.documentType)
	if err != nil {
		logger.Warn("watch: ingesting %s: %v", path, err)
		res.Err = err
		return res
	}

	res.DocumentID = result.DocumentID
	res.NumChunks = result.NumChunks
	logger.Info("watch: ingested %s as %s (%d chunks)", path, result.DocumentID, result.NumChunks)
	return res
}

// isHidden returns true if any element of path starts with a dot.
// "." and ".." are not considered hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
