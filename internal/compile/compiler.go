package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/cloverleaf/internal/integration/process"
)

// Default compiler invocation.
const (
	DefaultCommand         = "pdflatex"
	DefaultOutputExtension = ".pdf"
)

// DefaultArgs enables SyncTeX data and keeps TeX from prompting on errors.
var DefaultArgs = []string{"-synctex=1", "-interaction=nonstopmode"}

// State is the orchestrator's process slot.
type State int

const (
	// StateIdle means no compile is running.
	StateIdle State = iota
	// StateRunning means a compile owns the process slot.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// DiagnosticSink receives the diagnostics of failed runs.
type DiagnosticSink interface {
	// Publish replaces the current batch. mainFile is the compiled
	// document, used to place diagnostics without a file.
	Publish(mainFile string, diags []Diagnostic)

	// Clear drops the current batch.
	Clear()
}

// Result is the outcome of one compile run.
type Result struct {
	// Source is the compiled document.
	Source string

	// Artifact is the expected output path.
	Artifact string

	// Success is true iff the exit code was 0 and Artifact exists.
	Success bool

	// ExitCode is the compiler's exit code; -1 when cancelled or unknown.
	ExitCode int

	// Canceled reports a run stopped through its context.
	Canceled bool

	// ArtifactExists reports whether Artifact was found after a zero exit.
	ArtifactExists bool

	// Diagnostics are parsed from Output when the compiler failed.
	Diagnostics []Diagnostic

	// Output is the merged stdout/stderr transcript.
	Output string

	// Duration is the wall time of the run.
	Duration time.Duration

	err error
}

// Err explains an unsuccessful result: ErrCanceled, ErrArtifactMissing, or
// an *ExitError. It returns nil for successful runs.
func (r Result) Err() error {
	return r.err
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithCommand sets the compiler executable and its leading arguments.
func WithCommand(name string, args []string) CompilerOption {
	return func(c *Compiler) {
		if name != "" {
			c.command = name
		}
		if args != nil {
			c.args = slices.Clone(args)
		}
	}
}

// WithOutputExtension sets the artifact extension (".pdf").
func WithOutputExtension(ext string) CompilerOption {
	return func(c *Compiler) {
		if ext != "" {
			c.outputExt = ext
		}
	}
}

// WithDiagnosticSink sets where failed-run diagnostics are published.
func WithDiagnosticSink(sink DiagnosticSink) CompilerOption {
	return func(c *Compiler) {
		c.sink = sink
	}
}

// WithTranscript mirrors the live compiler transcript to w.
func WithTranscript(w io.Writer) CompilerOption {
	return func(c *Compiler) {
		c.transcript = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = l
	}
}

// Compiler orchestrates compiler runs. It owns a single process slot:
// concurrent requests for the document being compiled share the in-flight
// run, requests for any other document are rejected.
type Compiler struct {
	spawner    process.Spawner
	command    string
	args       []string
	outputExt  string
	sink       DiagnosticSink
	transcript io.Writer
	logger     *slog.Logger

	mu           sync.Mutex
	state        State
	active       string
	cancelActive context.CancelFunc

	flight singleflight.Group

	// transcriptMu serializes writes from the two stream readers.
	transcriptMu sync.Mutex
}

// NewCompiler creates a compiler that launches processes with spawner.
func NewCompiler(spawner process.Spawner, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		spawner:    spawner,
		command:    DefaultCommand,
		args:       slices.Clone(DefaultArgs),
		outputExt:  DefaultOutputExtension,
		transcript: io.Discard,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ArtifactPath returns source with its extension replaced by ext.
func ArtifactPath(source, ext string) string {
	return source[:len(source)-len(filepath.Ext(source))] + ext
}

// Artifact returns the output path for source under this compiler's
// configuration.
func (c *Compiler) Artifact(source string) string {
	return ArtifactPath(source, c.outputExt)
}

// State returns the current process-slot state.
func (c *Compiler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the document being compiled, or "".
func (c *Compiler) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Compile runs the compiler on sourceFile.
//
// The returned error is non-nil only when the run could not happen at all:
// a *process.StartError when the executable could not be launched, or
// ErrCompileInProgress. Every other outcome is described by the Result.
//
// A caller joining an in-flight run for the same document shares that
// run's context; cancelling the joiner's ctx does not stop it.
func (c *Compiler) Compile(ctx context.Context, sourceFile string) (Result, error) {
	if abs, err := filepath.Abs(sourceFile); err == nil {
		sourceFile = abs
	}

	v, err, shared := c.flight.Do(sourceFile, func() (any, error) {
		return c.runExclusive(ctx, sourceFile)
	})
	if shared {
		c.logger.Debug("joined in-flight compile", "source", sourceFile)
	}

	res, _ := v.(Result)
	return res, err
}

// Close stops the active run, if any.
func (c *Compiler) Close() {
	c.mu.Lock()
	cancel := c.cancelActive
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Compiler) runExclusive(ctx context.Context, source string) (Result, error) {
	c.mu.Lock()
	if c.state == StateRunning {
		active := c.active
		c.mu.Unlock()
		return Result{Source: source, Artifact: c.Artifact(source), ExitCode: -1},
			fmt.Errorf("%w: %s", ErrCompileInProgress, active)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.state = StateRunning
	c.active = source
	c.cancelActive = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.state = StateIdle
		c.active = ""
		c.cancelActive = nil
		c.mu.Unlock()
	}()

	return c.run(runCtx, source)
}

func (c *Compiler) run(ctx context.Context, source string) (Result, error) {
	start := time.Now()
	res := Result{
		Source:   source,
		Artifact: c.Artifact(source),
		ExitCode: -1,
	}

	if c.sink != nil {
		c.sink.Clear()
	}

	spec := process.Spec{
		Name: c.command,
		Args: append(slices.Clone(c.args), filepath.Base(source)),
		Dir:  filepath.Dir(source),
	}

	c.writef("Compiling %s with %s...\n", filepath.Base(source), c.command)
	c.writef("Command: %s\n", spec.CommandLine())
	c.writef("Working directory: %s\n", spec.Dir)
	c.writef("---\n")

	h, err := c.spawner.Start(ctx, spec)
	if err != nil {
		res.Duration = time.Since(start)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			res.Canceled = true
			res.err = ErrCanceled
			c.writef("\nCompilation was cancelled.\n")
			return res, nil
		}
		var se *process.StartError
		if !errors.As(err, &se) {
			err = &process.StartError{Command: c.command, Err: err}
		}
		c.writef("\nError starting compiler: %v\n", err)
		c.logger.Error("compiler could not start", "command", c.command, "error", err)
		return res, err
	}

	c.logger.Info("compile started", "source", source, "command", spec.CommandLine(), "id", h.ID())

	var (
		terminateOnce sync.Once
		terminated    atomic.Bool
		exited        = make(chan struct{})
	)
	go func() {
		select {
		case <-ctx.Done():
			terminateOnce.Do(func() {
				terminated.Store(true)
				if err := h.Terminate(); err != nil {
					c.logger.Debug("terminate after cancel", "id", h.ID(), "error", err)
				}
			})
		case <-exited:
		}
	}()

	buf := NewOutputBuffer(0)
	echo := func(line OutputLine) {
		c.writef("%s\n", line.Content)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := buf.Consume(h.Stdout(), OutputStreamStdout, echo); err != nil {
			c.logger.Warn("reading compiler stdout", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := buf.Consume(h.Stderr(), OutputStreamStderr, echo); err != nil {
			c.logger.Warn("reading compiler stderr", "error", err)
		}
	}()
	wg.Wait()

	status := h.Wait()
	close(exited)

	res.Output = buf.Content()
	res.Duration = time.Since(start)

	switch {
	case terminated.Load():
		res.Canceled = true
		res.err = ErrCanceled
		c.writef("\n✗ Compilation was cancelled.\n")
		c.logger.Info("compile cancelled", "source", source)

	case status.Success():
		res.ExitCode = 0
		if fileExists(res.Artifact) {
			res.ArtifactExists = true
			res.Success = true
			c.writef("\n✓ Compilation completed successfully.\n")
			c.logger.Info("compile succeeded", "source", source, "artifact", res.Artifact, "duration", res.Duration)
		} else {
			res.err = ErrArtifactMissing
			c.writef("\n⚠ %s not found after compilation.\n", filepath.Base(res.Artifact))
			c.logger.Warn("compile exited 0 without artifact", "source", source, "artifact", res.Artifact)
		}

	default:
		res.ExitCode = status.Code
		res.err = &ExitError{Command: c.command, Code: status.Code}
		res.Diagnostics = ParseOutput(res.Output)
		c.writef("\n✗ Compilation failed with exit code %d.\n", status.Code)
		c.logger.Info("compile failed", "source", source, "exit_code", status.Code, "diagnostics", len(res.Diagnostics))
		if c.sink != nil && len(res.Diagnostics) > 0 {
			c.sink.Publish(source, res.Diagnostics)
		}
	}

	return res, nil
}

func (c *Compiler) writef(format string, args ...any) {
	c.transcriptMu.Lock()
	defer c.transcriptMu.Unlock()
	_, _ = fmt.Fprintf(c.transcript, format, args...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
