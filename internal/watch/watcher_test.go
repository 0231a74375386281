package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestSourceWatcher_IsSource(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write tex", fsnotify.Event{Name: "/doc/main.tex", Op: fsnotify.Write}, true},
		{"create tex", fsnotify.Event{Name: "/doc/ch1.tex", Op: fsnotify.Create}, true},
		{"upper case ext", fsnotify.Event{Name: "/doc/MAIN.TEX", Op: fsnotify.Write}, true},
		{"bib", fsnotify.Event{Name: "/doc/refs.bib", Op: fsnotify.Write}, true},
		{"pdf output", fsnotify.Event{Name: "/doc/main.pdf", Op: fsnotify.Write}, false},
		{"log output", fsnotify.Event{Name: "/doc/main.log", Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: "/doc/main.tex", Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: "/doc/main.tex", Op: fsnotify.Remove}, false},
		{"hidden", fsnotify.Event{Name: "/doc/.#main.tex", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.IsSource(tt.ev); got != tt.want {
				t.Errorf("IsSource(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestSourceWatcher_WithExtensions(t *testing.T) {
	w, err := New(WithExtensions(".Rnw"))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	if !w.IsSource(fsnotify.Event{Name: "/doc/a.rnw", Op: fsnotify.Write}) {
		t.Error(".rnw should be a source")
	}
	if w.IsSource(fsnotify.Event{Name: "/doc/a.tex", Op: fsnotify.Write}) {
		t.Error(".tex should not be a source")
	}
}

func TestSourceWatcher_AddMissingDir(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	err = w.Add("/nonexistent/path/that/does/not/exist/main.tex")
	if !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Add error = %v, want ErrPathNotExist", err)
	}
}

func TestSourceWatcher_AddAfterClose(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Add(filepath.Join(t.TempDir(), "main.tex")); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Add error = %v, want ErrWatcherClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestSourceWatcher_DebouncesSaves(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(source, []byte(`\documentclass{article}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(WithDelay(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	if err := w.Add(source); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := w.Add(source); err != nil {
		t.Fatalf("second Add error = %v", err)
	}

	var mu sync.Mutex
	var saves []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) {
			mu.Lock()
			saves = append(saves, path)
			mu.Unlock()
		})
	}()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(source, []byte(`\documentclass{article} % edit`), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(saves) != 1 {
		t.Fatalf("saves = %v, want one save of %s", saves, source)
	}
	if saves[0] != source {
		t.Errorf("saved path = %q, want %q", saves[0], source)
	}
}
