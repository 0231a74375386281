package compile

import (
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// DefaultDiagnosticsTTL is how long a published batch stays visible.
const DefaultDiagnosticsTTL = 30 * time.Second

// DiagnosticStoreOption configures a DiagnosticStore.
type DiagnosticStoreOption func(*DiagnosticStore)

// WithTTL sets the batch lifetime. A zero or negative ttl disables expiry.
func WithTTL(ttl time.Duration) DiagnosticStoreOption {
	return func(s *DiagnosticStore) {
		s.ttl = ttl
	}
}

// WithChangeHandler registers a callback invoked once per affected file
// whenever a batch is published, cleared, or expires. A cleared file is
// reported with a nil slice.
func WithChangeHandler(fn func(file string, diags []Diagnostic)) DiagnosticStoreOption {
	return func(s *DiagnosticStore) {
		s.onChange = fn
	}
}

// DiagnosticStore holds the diagnostics of the latest failed compile,
// grouped by absolute file path. A batch lives until the next Publish or
// Clear, or until its TTL elapses.
type DiagnosticStore struct {
	mu         sync.Mutex
	byFile     map[string][]Diagnostic
	generation uint64
	timer      *time.Timer
	ttl        time.Duration
	onChange   func(file string, diags []Diagnostic)
}

// NewDiagnosticStore creates an empty store.
func NewDiagnosticStore(opts ...DiagnosticStoreOption) *DiagnosticStore {
	s := &DiagnosticStore{
		byFile: make(map[string][]Diagnostic),
		ttl:    DefaultDiagnosticsTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish replaces the current batch with diags. Diagnostics with an empty
// File are attributed to mainFile; relative files are resolved against
// mainFile's directory.
func (s *DiagnosticStore) Publish(mainFile string, diags []Diagnostic) {
	grouped := make(map[string][]Diagnostic)
	for _, d := range diags {
		file := resolveDiagnosticFile(mainFile, d.File)
		d.File = file
		grouped[file] = append(grouped[file], d)
	}

	s.mu.Lock()
	previous := s.byFile
	s.byFile = grouped
	s.generation++
	gen := s.generation
	s.stopTimerLocked()
	if s.ttl > 0 && len(grouped) > 0 {
		s.timer = time.AfterFunc(s.ttl, func() { s.expire(gen) })
	}
	s.mu.Unlock()

	s.notify(previous, grouped)
}

// Clear drops the current batch.
func (s *DiagnosticStore) Clear() {
	s.mu.Lock()
	previous := s.byFile
	s.byFile = make(map[string][]Diagnostic)
	s.generation++
	s.stopTimerLocked()
	s.mu.Unlock()

	s.notify(previous, nil)
}

// Get returns the diagnostics for file.
func (s *DiagnosticStore) Get(file string) []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	diags := s.byFile[file]
	if len(diags) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(diags))
	copy(out, diags)
	return out
}

// All returns every diagnostic, ordered by file.
func (s *DiagnosticStore) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Diagnostic
	for _, file := range s.filesLocked() {
		out = append(out, s.byFile[file]...)
	}
	return out
}

// Files returns the files that currently have diagnostics, sorted.
func (s *DiagnosticStore) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filesLocked()
}

// Count returns the number of stored diagnostics.
func (s *DiagnosticStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, diags := range s.byFile {
		n += len(diags)
	}
	return n
}

func (s *DiagnosticStore) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	previous := s.byFile
	s.byFile = make(map[string][]Diagnostic)
	s.timer = nil
	s.mu.Unlock()

	s.notify(previous, nil)
}

func (s *DiagnosticStore) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *DiagnosticStore) filesLocked() []string {
	files := make([]string, 0, len(s.byFile))
	for file := range s.byFile {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// notify reports every file present in either batch.
func (s *DiagnosticStore) notify(previous, current map[string][]Diagnostic) {
	if s.onChange == nil {
		return
	}
	for file := range previous {
		if _, ok := current[file]; !ok {
			s.onChange(file, nil)
		}
	}
	for file, diags := range current {
		s.onChange(file, diags)
	}
}

func resolveDiagnosticFile(mainFile, file string) string {
	switch {
	case file == "":
		return mainFile
	case filepath.IsAbs(file):
		return filepath.Clean(file)
	default:
		return filepath.Join(filepath.Dir(mainFile), file)
	}
}
