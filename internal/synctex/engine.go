package synctex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/cloverleaf/internal/integration/process"
)

// DefaultCommand is the mapping tool executable.
const DefaultCommand = "synctex"

// DefaultTimeout bounds a single query.
const DefaultTimeout = 10 * time.Second

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCommand sets the synctex executable.
func WithCommand(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.command = name
		}
	}
}

// WithTimeout bounds each query. Zero disables the bound.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine answers forward and reverse mapping queries. It is stateless apart
// from its configuration and safe for concurrent use.
type Engine struct {
	spawner process.Spawner
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// NewEngine creates an engine that launches the tool with spawner.
func NewEngine(spawner process.Spawner, opts ...EngineOption) *Engine {
	e := &Engine{
		spawner: spawner,
		command: DefaultCommand,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forward maps a 1-based source line and column to a PDF position.
// It returns (nil, nil) when the tool finds no mapping or exits with an
// error, and a *process.StartError when the tool cannot be launched. A
// query cut short by ctx also resolves to (nil, nil) unless ctx was done
// before the tool started.
func (e *Engine) Forward(ctx context.Context, source string, line, column int, artifact string) (*RenderedPosition, error) {
	input := fmt.Sprintf("%d:%d:%s", line, column, source)
	out, ok, err := e.run(ctx, "view", "-i", input, "-o", artifact)
	if err != nil || !ok {
		return nil, err
	}

	pos, found := ParseForward(out)
	if !found {
		e.logger.Info("synctex view found no mapping", "input", input, "output", out)
		return nil, nil
	}
	return pos, nil
}

// Reverse maps a point on a PDF page to a source position.
// It returns (nil, nil) when the tool finds no mapping or exits with an
// error, and a *process.StartError when the tool cannot be launched.
func (e *Engine) Reverse(ctx context.Context, artifact string, page int, x, y float64) (*SourcePosition, error) {
	target := fmt.Sprintf("%d:%s:%s:%s", page, formatCoord(x), formatCoord(y), artifact)
	out, ok, err := e.run(ctx, "edit", "-o", target)
	if err != nil || !ok {
		return nil, err
	}

	pos, found := ParseReverse(out)
	if !found {
		e.logger.Info("synctex edit found no mapping", "target", target, "output", out)
		return nil, nil
	}
	return pos, nil
}

// run executes one query and returns its stdout. ok is false when the tool
// ran but did not exit cleanly.
func (e *Engine) run(ctx context.Context, args ...string) (string, bool, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	spec := process.Spec{Name: e.command, Args: args}
	h, err := e.spawner.Start(ctx, spec)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", false, err
		}
		var se *process.StartError
		if !errors.As(err, &se) {
			err = &process.StartError{Command: e.command, Err: err}
		}
		e.logger.Error("synctex could not start", "command", e.command, "error", err)
		return "", false, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = h.Terminate()
	})
	defer stop()

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, h.Stdout())
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, h.Stderr())
		return err
	})
	readErr := g.Wait()
	status := h.Wait()

	if readErr != nil {
		e.logger.Warn("reading synctex output", "error", readErr)
	}
	if !status.Success() {
		e.logger.Warn("synctex exited with error",
			"command", spec.CommandLine(),
			"exit_code", status.Code,
			"stderr", stderr.String(),
		)
		return "", false, nil
	}
	return stdout.String(), true, nil
}

// formatCoord renders a coordinate without exponent notation.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
