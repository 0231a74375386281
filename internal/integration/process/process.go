package process

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Process represents a managed child process.
//
// Process wraps an exec.Cmd with lifecycle management and exit tracking.
// It implements Handle and is safe for concurrent use.
type Process struct {
	id   string
	name string
	cmd  *exec.Cmd

	stdout  *io.PipeReader
	stderr  *io.PipeReader
	stdoutW *io.PipeWriter
	stderrW *io.PipeWriter

	// Started is the time the process was started.
	Started time.Time

	// done is closed when the process exits.
	done chan struct{}

	state    atomic.Int32
	exitCode atomic.Int32

	// mu protects status.
	mu     sync.RWMutex
	status ExitStatus

	waitOnce sync.Once
}

// NewProcess creates a new Process wrapping the given command.
//
// The command must not have been started and must not have Stdout or
// Stderr configured; the process installs its own pipes.
func NewProcess(id, name string, cmd *exec.Cmd) *Process {
	p := &Process{
		id:   id,
		name: name,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	p.stdout, p.stdoutW = io.Pipe()
	p.stderr, p.stderrW = io.Pipe()
	cmd.Stdout = p.stdoutW
	cmd.Stderr = p.stderrW
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1) // -1 indicates not exited
	return p
}

// ID returns the unique identifier for this process.
func (p *Process) ID() string {
	return p.id
}

// Name returns the human-readable process name.
func (p *Process) Name() string {
	return p.name
}

// Stdout returns the standard output stream.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the standard error stream.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the process exit code.
// Returns -1 if the process has not exited or was killed by a signal.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its status.
func (p *Process) Wait() ExitStatus {
	<-p.done
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// IsRunning returns true if the process is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// HasExited returns true if the process has exited (normally or killed).
func (p *Process) HasExited() bool {
	state := p.State()
	return state == StateExited || state == StateKilled
}

// PID returns the process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// signalGroup delivers sig to the whole process group so that helpers the
// child spawned (mktexpk, bibtex) go down with it.
func (p *Process) signalGroup(sig unix.Signal) error {
	if !p.IsRunning() {
		return fmt.Errorf("process not running: %w", ErrProcessNotStarted)
	}
	pid := p.PID()
	if pid <= 0 {
		return ErrProcessNotStarted
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		// The group leader may already be gone; fall back to the pid.
		err = unix.Kill(pid, sig)
	}
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// Terminate sends SIGTERM to the process group.
func (p *Process) Terminate() error {
	return p.signalGroup(unix.SIGTERM)
}

// Kill sends SIGKILL to the process group.
func (p *Process) Kill() error {
	return p.signalGroup(unix.SIGKILL)
}

// start starts the process and begins tracking it.
// This is called by the Supervisor.
func (p *Process) start() error {
	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}

	if err := p.cmd.Start(); err != nil {
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		return err
	}

	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	return nil
}

// waitLoop waits for the process to exit and updates state. Wait returns
// only after the output copiers have drained, so closing the pipe writers
// here delivers EOF to readers after the last byte.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()

		status := ExitStatus{Err: err}
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				status.Code = exitErr.ExitCode()
				if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
					state = StateKilled
					status.Signaled = true
					status.Code = -1
				}
			} else {
				status.Code = -1
			}
		}

		p.mu.Lock()
		p.status = status
		p.mu.Unlock()

		p.exitCode.Store(int32(status.Code))
		p.state.Store(int32(state))
		close(p.done)
	})
}

// Runtime returns the duration the process has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}

// Sentinel errors for process package.
var (
	// ErrProcessNotStarted is returned when operations require a started process.
	ErrProcessNotStarted = errors.New("process not started")

	// ErrProcessAlreadyStarted is returned when trying to start an already running process.
	ErrProcessAlreadyStarted = errors.New("process already started")

	// ErrSupervisorShutdown is returned when the supervisor is shutting down.
	ErrSupervisorShutdown = errors.New("supervisor is shutting down")

	// ErrProcessNotFound is returned when a process ID is not tracked.
	ErrProcessNotFound = errors.New("process not found")
)
