package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Spec describes a child process to launch. No shell is involved: Name is
// resolved through PATH and Args are passed verbatim.
type Spec struct {
	// Name is the executable name or path.
	Name string

	// Args are the arguments, not including Name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// CommandLine renders the spec for transcripts and error messages.
func (s Spec) CommandLine() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// ExitStatus describes how a child process finished.
type ExitStatus struct {
	// Code is the exit code, or -1 when the process was killed by a
	// signal and has no exit code.
	Code int

	// Signaled reports whether the process was ended by a signal.
	Signaled bool

	// Err is the error from waiting on the process, if any.
	Err error
}

// Success reports a clean zero exit.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && !s.Signaled
}

// Handle is a started child process.
type Handle interface {
	// ID returns the supervisor-assigned identifier.
	ID() string

	// Stdout returns the child's standard output stream.
	Stdout() io.Reader

	// Stderr returns the child's standard error stream.
	Stderr() io.Reader

	// Wait blocks until the process has exited. It may be called
	// repeatedly and from several goroutines.
	Wait() ExitStatus

	// Terminate asks the process (and its process group) to stop.
	Terminate() error
}

// Spawner launches child processes.
type Spawner interface {
	Start(ctx context.Context, spec Spec) (Handle, error)
}

// StartError reports that an executable could not be launched at all,
// as opposed to launching and then failing.
type StartError struct {
	// Command is the executable that was attempted.
	Command string
	// Err is the underlying launch error.
	Err error
}

// Error implements the error interface.
func (e *StartError) Error() string {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return fmt.Sprintf("%s: command not found", e.Command)
	}
	return fmt.Sprintf("could not start %s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *StartError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the executable was missing from PATH.
func (e *StartError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound)
}
