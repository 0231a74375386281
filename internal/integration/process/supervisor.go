package process

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supervisor manages child processes with lifecycle tracking and cleanup.
// It is the production Spawner.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	// shutdown signals that the supervisor is shutting down
	shutdown chan struct{}

	// closed indicates the supervisor has been shut down
	closed atomic.Bool

	// maxProcesses limits the number of concurrent processes (0 = unlimited)
	maxProcesses int

	// waitDelay bounds how long Wait blocks on output after exit, for
	// children that leave grandchildren holding the pipes open.
	waitDelay time.Duration

	// onProcessExit is called when a process exits
	onProcessExit func(p *Process)

	logger *slog.Logger
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(max int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = max
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// WithWaitDelay sets the grace period for output pipes after exit.
func WithWaitDelay(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.waitDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		shutdown:  make(chan struct{}),
		waitDelay: 5 * time.Second,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start launches spec as a tracked child process. Launch failures are
// reported as *StartError.
//
// The context only gates the launch; stopping a running child is the
// caller's job via Handle.Terminate.
func (s *Supervisor) Start(ctx context.Context, spec Spec) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proc, err := s.StartWithID(uuid.New().String(), spec)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// StartWithID starts a new managed process with a specific ID.
func (s *Supervisor) StartWithID(id string, spec Spec) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check shutdown state under lock to prevent race
	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}

	if s.maxProcesses > 0 && len(s.processes) >= s.maxProcesses {
		return nil, fmt.Errorf("process limit reached: %d", s.maxProcesses)
	}

	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process ID already exists: %s", id)
	}

	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.WaitDelay = s.waitDelay

	proc := NewProcess(id, spec.Name, cmd)

	// Start the process before tracking (so we don't track failed starts)
	if err := proc.start(); err != nil {
		return nil, &StartError{Command: spec.Name, Err: err}
	}

	s.processes[id] = proc
	s.logger.Debug("process started", "id", id, "command", spec.CommandLine(), "dir", spec.Dir, "pid", proc.PID())

	go s.monitorProcess(proc)

	return proc, nil
}

// monitorProcess watches for process exit and cleans up.
func (s *Supervisor) monitorProcess(proc *Process) {
	<-proc.Done()

	if s.onProcessExit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("process exit callback panicked", "id", proc.ID(), "panic", r)
				}
			}()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID())
	s.mu.Unlock()

	s.logger.Debug("process exited", "id", proc.ID(), "code", proc.ExitCode(), "runtime", proc.Runtime())
}

// Get returns a process by ID.
// Returns nil if the process is not found.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// List returns all managed processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of managed processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Terminate sends SIGTERM to a process by ID.
// Returns ErrProcessNotFound if the process doesn't exist.
func (s *Supervisor) Terminate(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}

	if !proc.IsRunning() {
		return nil // Already exited
	}

	return proc.Terminate()
}

// Shutdown gracefully shuts down all processes.
//
// It first sends SIGTERM to all processes and waits up to timeout
// for them to exit. Any processes still running after the timeout
// are killed with SIGKILL.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return // Already shutting down
	}

	close(s.shutdown)

	procs := s.List()
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}

	s.waitForCleanup()
}

// waitForCleanup waits for all processes to be removed from the map.
func (s *Supervisor) waitForCleanup() {
	for s.Count() > 0 {
		time.Sleep(1 * time.Millisecond)
	}
}

// IsShuttingDown returns true if the supervisor is shutting down.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}

// ShutdownChan returns a channel that is closed when shutdown begins.
func (s *Supervisor) ShutdownChan() <-chan struct{} {
	return s.shutdown
}
