package process

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func drainHandle(h Handle) string {
	outCh := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(h.Stdout())
		outCh <- string(b)
	}()
	_, _ = io.Copy(io.Discard, h.Stderr())
	return <-outCh
}

func TestNewSupervisor(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if s.Count() != 0 {
		t.Errorf("expected 0 processes, got %d", s.Count())
	}

	if s.IsShuttingDown() {
		t.Error("expected IsShuttingDown() to be false")
	}
}

func TestSupervisor_Start(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	h, err := s.Start(context.Background(), Spec{Name: "sh", Args: []string{"-c", "pwd"}, Dir: "/"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if h.ID() == "" {
		t.Error("expected generated ID")
	}

	out := drainHandle(h)
	if strings.TrimSpace(out) != "/" {
		t.Errorf("working directory = %q, want /", out)
	}
	if status := h.Wait(); !status.Success() {
		t.Errorf("expected success, got %+v", status)
	}
}

func TestSupervisor_StartNotFound(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	_, err := s.Start(context.Background(), Spec{Name: "cloverleaf-no-such-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}

	var se *StartError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StartError, got %T", err)
	}
	if !se.NotFound() {
		t.Errorf("expected NotFound, got %v", se.Err)
	}
	if se.Command != "cloverleaf-no-such-binary" {
		t.Errorf("Command = %q", se.Command)
	}
	if s.Count() != 0 {
		t.Errorf("failed start must not be tracked, count = %d", s.Count())
	}
}

func TestSupervisor_StartCanceledContext(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Start(ctx, Spec{Name: "true"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSupervisor_WithMaxProcesses(t *testing.T) {
	s := NewSupervisor(WithMaxProcesses(1))
	defer s.Shutdown(time.Second)

	h, err := s.Start(context.Background(), Spec{Name: "sleep", Args: []string{"10"}})
	if err != nil {
		t.Fatalf("failed to start first process: %v", err)
	}
	go drainHandle(h)

	if _, err := s.Start(context.Background(), Spec{Name: "sleep", Args: []string{"10"}}); err == nil {
		t.Error("expected error when exceeding max processes")
	}
}

func TestSupervisor_WithProcessExitCallback(t *testing.T) {
	var called atomic.Bool

	s := NewSupervisor(WithProcessExitCallback(func(p *Process) {
		called.Store(true)
	}))
	defer s.Shutdown(time.Second)

	h, err := s.Start(context.Background(), Spec{Name: "true"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	drainHandle(h)
	h.Wait()

	deadline := time.Now().Add(time.Second)
	for s.Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if !called.Load() {
		t.Error("exit callback was not called")
	}
	if s.Count() != 0 {
		t.Errorf("expected process to be untracked after exit, count = %d", s.Count())
	}
}

func TestSupervisor_StartWithID_Duplicate(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	p, err := s.StartWithID("same", Spec{Name: "sleep", Args: []string{"10"}})
	if err != nil {
		t.Fatalf("StartWithID failed: %v", err)
	}
	go drainHandle(p)

	if _, err := s.StartWithID("same", Spec{Name: "sleep", Args: []string{"10"}}); err == nil {
		t.Error("expected error for duplicate ID")
	}
	if s.Get("same") != p {
		t.Error("Get returned a different process")
	}
}

func TestSupervisor_Terminate_NotFound(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if err := s.Terminate("missing"); err != ErrProcessNotFound {
		t.Errorf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestSupervisor_Shutdown(t *testing.T) {
	s := NewSupervisor()

	for i := 0; i < 3; i++ {
		h, err := s.Start(context.Background(), Spec{Name: "sleep", Args: []string{"10"}})
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		go drainHandle(h)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown(2 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	if s.Count() != 0 {
		t.Errorf("expected 0 processes after shutdown, got %d", s.Count())
	}

	select {
	case <-s.ShutdownChan():
	default:
		t.Error("ShutdownChan not closed")
	}
}

func TestSupervisor_StartAfterShutdown(t *testing.T) {
	s := NewSupervisor()
	s.Shutdown(time.Second)
	s.Shutdown(time.Second) // idempotent

	if _, err := s.Start(context.Background(), Spec{Name: "true"}); err != ErrSupervisorShutdown {
		t.Errorf("expected ErrSupervisorShutdown, got %v", err)
	}
}

func TestSpec_CommandLine(t *testing.T) {
	spec := Spec{Name: "pdflatex", Args: []string{"-synctex=1", "main.tex"}}
	if got := spec.CommandLine(); got != "pdflatex -synctex=1 main.tex" {
		t.Errorf("CommandLine() = %q", got)
	}
	if got := (Spec{Name: "synctex"}).CommandLine(); got != "synctex" {
		t.Errorf("CommandLine() = %q", got)
	}
}
