// Package watch ingests documents as they appear in a directory.
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

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/logger"
	"github.com/custodia-labs/apiforge/internal/normalisers"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ErrNotDirectory is returned when the watched path is not a directory.
var ErrNotDirectory = errors.New("watch: path is not a directory")

// LoadFile reads a file into a raw document for projectID.
func LoadFile(path, projectID string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &domain.RawDocument{
		ProjectID: projectID,
		Name:      filepath.Base(path),
		URI:       path,
		MIMEType:  normalisers.DetectMIMEType(path),
		Content:   content,
	}, nil
}

// Watcher ingests files created or modified in a directory.
type Watcher struct {
	dir       string
	projectID string
	ingest    driving.IngestService
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for dir.
func New(dir, projectID string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		projectID: projectID,
		ingest:    ingest,
		debounce:  DefaultDebounce,
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Ingestion failures are logged and do
// not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watch: %s for project %s", w.dir, w.projectID)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(event); ok {
				w.mark(path, time.Now())
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				w.ingestFile(ctx, path)
			}
		}
	}
}

// handleEvent returns the path to ingest for event, if any. Removals,
// directories and hidden files are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) mark(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// due pops the paths that have been quiet for the debounce interval.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	raw, err := LoadFile(path, w.projectID)
	if err != nil {
		logger.Warn("watch: %v", err)
		return
	}
	result, err := w.ingest.Ingest(ctx, raw)
	if err != nil {
		logger.Warn("watch: ingest %s: %v", path, err)
		if result == nil {
			return
		}
	}
	logger.Info("watch: ingested %s (%d sections, %d requirements)",
		raw.Name, result.Sections, len(result.Requirements))
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
