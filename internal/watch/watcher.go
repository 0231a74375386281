package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period before a save triggers the callback.
const DefaultDelay = time.Second

// DefaultExtensions are the file extensions treated as LaTeX sources.
var DefaultExtensions = []string{".tex", ".latex", ".ltx", ".bib", ".sty", ".cls"}

// Option configures a SourceWatcher.
type Option func(*SourceWatcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *SourceWatcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithExtensions replaces the set of extensions that count as sources.
func WithExtensions(exts ...string) Option {
	return func(w *SourceWatcher) {
		w.exts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			w.exts[strings.ToLower(ext)] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *SourceWatcher) {
		w.logger = l
	}
}

// SourceWatcher reports debounced saves of LaTeX sources.
type SourceWatcher struct {
	fsw    *fsnotify.Watcher
	delay  time.Duration
	exts   map[string]bool
	logger *slog.Logger

	mu      sync.Mutex
	dirs    map[string]bool
	pending map[string]*Debouncer
	closed  bool
}

// New creates a SourceWatcher.
func New(opts ...Option) (*SourceWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &SourceWatcher{
		fsw:     fsw,
		delay:   DefaultDelay,
		logger:  slog.Default(),
		dirs:    make(map[string]bool),
		pending: make(map[string]*Debouncer),
	}
	WithExtensions(DefaultExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches the directory containing source. Adding a second document
// from the same directory is a no-op.
func (w *SourceWatcher) Add(source string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.dirs[dir] {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPathNotExist, dir)
		}
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	w.logger.Debug("watching directory", "dir", dir)
	return nil
}

// Run delivers saves to onSave until ctx is done or the watcher is
// closed. onSave receives the absolute path of the saved file; calls for
// the same path never overlap.
func (w *SourceWatcher) Run(ctx context.Context, onSave func(path string)) error {
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.IsSource(ev) {
				continue
			}
			w.debouncerFor(ev.Name, onSave).Call()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch events dropped", "error", err)
				continue
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// IsSource reports whether ev is a write to a watched source file.
func (w *SourceWatcher) IsSource(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(base))]
}

// Close stops watching. Pending callbacks are dropped.
func (w *SourceWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancelPending()
	return w.fsw.Close()
}

func (w *SourceWatcher) debouncerFor(path string, onSave func(string)) *Debouncer {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.pending[path]
	if !ok {
		d = NewDebouncer(w.delay, func() {
			w.logger.Debug("source saved", "path", path)
			onSave(path)
		})
		w.pending[path] = d
	}
	return d
}

func (w *SourceWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.pending {
		d.Cancel()
	}
	w.pending = make(map[string]*Debouncer)
}
