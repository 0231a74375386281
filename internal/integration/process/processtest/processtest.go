// Package processtest provides a scripted process.Spawner for tests.
//
// Each Start consults the Spawner's Script function to decide what the fake
// child prints and how it exits. A script with Block set keeps the child
// running until Terminate or Exit is called, which lets tests exercise
// cancellation and concurrent requests deterministically.
package processtest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/cloverleaf/internal/integration/process"
)

// Script describes one fake child process.
type Script struct {
	// Stdout and Stderr are written to the respective streams.
	Stdout string
	Stderr string

	// Code is the exit code reported when the child exits on its own.
	Code int

	// Block keeps the child alive after writing its output.
	Block bool

	// StartErr, when set, makes Start fail with a *process.StartError.
	StartErr error
}

// Spawner is a fake process.Spawner.
type Spawner struct {
	// Script returns the behaviour for spec. Nil means exit 0 silently.
	Script func(spec process.Spec) Script

	mu      sync.Mutex
	calls   []process.Spec
	handles []*Handle
	started chan *Handle
}

// NewSpawner returns a spawner that runs the same script for every call.
func NewSpawner(s Script) *Spawner {
	return &Spawner{
		Script: func(process.Spec) Script { return s },
	}
}

// Start implements process.Spawner.
func (s *Spawner) Start(ctx context.Context, spec process.Spec) (process.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	script := Script{}
	if s.Script != nil {
		script = s.Script(spec)
	}

	s.mu.Lock()
	s.calls = append(s.calls, spec)
	s.mu.Unlock()

	if script.StartErr != nil {
		return nil, &process.StartError{Command: spec.Name, Err: script.StartErr}
	}

	s.mu.Lock()
	h := newHandle(fmt.Sprintf("fake-%d", len(s.handles)+1), spec, script)
	s.handles = append(s.handles, h)
	started := s.started
	s.mu.Unlock()

	if started != nil {
		started <- h
	}
	return h, nil
}

// Started returns a channel that receives every handle as it is started.
// It must be called before the first Start it should observe.
func (s *Spawner) Started() <-chan *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started == nil {
		s.started = make(chan *Handle, 16)
	}
	return s.started
}

// Calls returns the specs passed to Start, including failed ones.
func (s *Spawner) Calls() []process.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]process.Spec, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handles returns the handles started so far.
func (s *Spawner) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Handle is a fake running process.
type Handle struct {
	id   string
	spec process.Spec

	stdoutR, stderrR *io.PipeReader
	stdoutW, stderrW *io.PipeWriter

	exitOnce   sync.Once
	done       chan struct{}
	status     process.ExitStatus
	written    chan struct{}
	terminates atomic.Int32
}

func newHandle(id string, spec process.Spec, script Script) *Handle {
	h := &Handle{
		id:      id,
		spec:    spec,
		done:    make(chan struct{}),
		written: make(chan struct{}),
	}
	h.stdoutR, h.stdoutW = io.Pipe()
	h.stderrR, h.stderrW = io.Pipe()

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = io.WriteString(h.stdoutW, script.Stdout)
		}()
		go func() {
			defer wg.Done()
			_, _ = io.WriteString(h.stderrW, script.Stderr)
		}()
		wg.Wait()
		close(h.written)

		if !script.Block {
			h.Exit(script.Code)
		}
	}()

	return h
}

// ID implements process.Handle.
func (h *Handle) ID() string { return h.id }

// Spec returns the spec the handle was started with.
func (h *Handle) Spec() process.Spec { return h.spec }

// Stdout implements process.Handle.
func (h *Handle) Stdout() io.Reader { return h.stdoutR }

// Stderr implements process.Handle.
func (h *Handle) Stderr() io.Reader { return h.stderrR }

// Wait implements process.Handle.
func (h *Handle) Wait() process.ExitStatus {
	<-h.done
	return h.status
}

// Terminate implements process.Handle. The child ends as if signaled.
func (h *Handle) Terminate() error {
	h.terminates.Add(1)
	h.finish(process.ExitStatus{Code: -1, Signaled: true})
	return nil
}

// Exit ends a blocked child with code once its output has been written.
func (h *Handle) Exit(code int) {
	<-h.written
	h.finish(process.ExitStatus{Code: code})
}

// Terminations returns how many times Terminate was called.
func (h *Handle) Terminations() int {
	return int(h.terminates.Load())
}

// Done is closed when the child has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) finish(status process.ExitStatus) {
	h.exitOnce.Do(func() {
		h.status = status
		_ = h.stdoutW.Close()
		_ = h.stderrW.Close()
		close(h.done)
	})
}
