// Package app wires cloverleaf's components together and manages their
// lifecycle.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dshills/cloverleaf/internal/bridge"
	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/config"
	"github.com/dshills/cloverleaf/internal/editor"
	"github.com/dshills/cloverleaf/internal/integration/process"
	"github.com/dshills/cloverleaf/internal/logging"
	"github.com/dshills/cloverleaf/internal/preview"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// Options configures the application at startup.
type Options struct {
	// ConfigPath is an explicit configuration file.
	ConfigPath string

	// Document is the LaTeX file being worked on. Its directory is
	// searched for a project configuration file.
	Document string

	// LogLevel, Color and Editor override the configured values when set.
	LogLevel string
	Color    string
	Editor   string

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Spawner replaces the process supervisor, mainly for tests.
	Spawner process.Spawner

	// Logger replaces the logger built from configuration.
	Logger *slog.Logger

	// UserConfigDir and Environ replace the user configuration directory
	// and os.Environ.
	UserConfigDir string
	Environ       func() []string
}

// Application holds every component of a cloverleaf run.
type Application struct {
	opts Options

	config      *config.Config
	logger      *slog.Logger
	supervisor  *process.Supervisor
	spawner     process.Spawner
	editor      editor.Editor
	bridge      *bridge.Bridge
	diagnostics *compile.DiagnosticStore
	compiler    *compile.Compiler
	engine      *synctex.Engine
	coordinator *preview.Coordinator

	running atomic.Bool
	closed  atomic.Bool
}

// New creates and initializes an application.
func New(opts Options) (*Application, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	if err := app.initConfig(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	// 2. Logger
	if err := app.initLogger(); err != nil {
		return &InitError{Component: "logger", Err: err}
	}

	// 3. Process supervision
	procCfg := app.config.Process()
	if app.opts.Spawner != nil {
		app.spawner = app.opts.Spawner
	} else {
		app.supervisor = process.NewSupervisor(
			process.WithMaxProcesses(procCfg.MaxProcesses),
			process.WithWaitDelay(procCfg.WaitDelay),
			process.WithLogger(app.logger),
		)
		app.spawner = app.supervisor
	}

	// 4. Editor
	factory := app.initEditor()

	// 5. Diagnostics
	compilerCfg := app.config.Compiler()
	app.diagnostics = compile.NewDiagnosticStore(
		compile.WithTTL(compilerCfg.DiagnosticsTTL),
		compile.WithChangeHandler(app.editor.PublishDiagnostics),
	)

	// 6. Compiler
	app.compiler = compile.NewCompiler(app.spawner,
		compile.WithCommand(compilerCfg.Command, compilerCfg.Args),
		compile.WithOutputExtension(compilerCfg.OutputExtension),
		compile.WithDiagnosticSink(app.diagnostics),
		compile.WithTranscript(app.opts.Stderr),
		compile.WithLogger(app.logger),
	)

	// 7. SyncTeX
	syncCfg := app.config.SyncTeX()
	app.engine = synctex.NewEngine(app.spawner,
		synctex.WithCommand(syncCfg.Command),
		synctex.WithTimeout(syncCfg.Timeout),
		synctex.WithLogger(app.logger),
	)

	// 8. Preview
	app.coordinator = preview.NewCoordinator(factory,
		preview.WithCompiler(app.compiler),
		preview.WithMapper(app.engine),
		preview.WithEditor(app.editor),
		preview.WithLogger(app.logger),
	)

	app.logger.Debug("application initialized",
		"editor", app.config.Editor().Kind,
		"compiler", compilerCfg.Command,
		"sources", app.config.Sources(),
	)
	return nil
}

func (app *Application) initConfig() error {
	var opts []config.Option
	if app.opts.Document != "" {
		opts = append(opts, config.WithProjectDir(filepath.Dir(app.opts.Document)))
	}
	if app.opts.ConfigPath != "" {
		opts = append(opts, config.WithConfigFile(app.opts.ConfigPath))
	}
	if app.opts.UserConfigDir != "" {
		opts = append(opts, config.WithUserConfigDir(app.opts.UserConfigDir))
	}
	if app.opts.Environ != nil {
		opts = append(opts, config.WithEnviron(app.opts.Environ))
	}

	app.config = config.New(opts...)
	if err := app.config.Load(context.Background()); err != nil {
		return err
	}

	overrides := map[string]string{
		"logging.level": app.opts.LogLevel,
		"editor.color":  app.opts.Color,
		"editor.kind":   app.opts.Editor,
	}
	changed := false
	for path, value := range overrides {
		if value == "" {
			continue
		}
		if err := app.config.Set(path, value); err != nil {
			return err
		}
		changed = true
	}
	if changed {
		return app.config.Validate()
	}
	return nil
}

func (app *Application) initLogger() error {
	if app.opts.Logger != nil {
		app.logger = app.opts.Logger
		return nil
	}
	cfg := app.config.Logging()
	logger, err := logging.New(app.opts.Stderr, logging.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
	})
	if err != nil {
		return err
	}
	app.logger = logger
	return nil
}

// initEditor sets app.editor and returns the factory for preview
// surfaces. The bridge editor also provides the surfaces; the others
// write surface commands to stdout.
func (app *Application) initEditor() preview.SurfaceFactory {
	cfg := app.config.Editor()

	if cfg.Kind == "bridge" {
		app.bridge = bridge.New(app.opts.Stdin, app.opts.Stdout, bridge.WithLogger(app.logger))
		app.editor = app.bridge
		return app.bridge.NewSurface
	}

	console := editor.NewConsole(app.opts.Stdout, editor.ColorMode(cfg.Color))
	if cfg.Kind == "plumber" {
		app.editor = editor.NewPlumber(console, editor.WithPort(cfg.PlumbPort))
	} else {
		app.editor = console
	}
	return textSurfaceFactory(app.opts.Stdout)
}

// Compile compiles source and reloads an open preview on success. A
// failed build is reported in the Result, not as an error.
func (app *Application) Compile(ctx context.Context, source string) (compile.Result, error) {
	if app.closed.Load() {
		return compile.Result{Source: source, ExitCode: -1}, ErrClosed
	}
	return app.coordinator.Compile(ctx, source)
}

// ShowPreview opens the preview on source's PDF.
func (app *Application) ShowPreview(source string) error {
	if app.closed.Load() {
		return ErrClosed
	}
	return app.coordinator.ShowPreview(source)
}

// SyncForward scrolls the preview to a 1-based source position, opening
// the preview first when needed.
func (app *Application) SyncForward(ctx context.Context, source string, line, column int) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.coordinator.HasSession() {
		if err := app.coordinator.ShowPreview(source); err != nil {
			return err
		}
	}
	return app.coordinator.SyncForward(ctx, source, line, column)
}

// SyncReverse reveals the source of a point on a page of artifact in the
// editor.
func (app *Application) SyncReverse(ctx context.Context, artifact string, page int, x, y float64) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if abs, err := filepath.Abs(artifact); err == nil {
		artifact = abs
	}
	if app.coordinator.CurrentArtifactPath() != artifact {
		if err := app.coordinator.OpenOrReveal(artifact); err != nil {
			return err
		}
	}
	return app.coordinator.SyncReverse(ctx, page, x, y)
}

// Shutdown stops running compiles, closes the preview and waits for child
// processes up to the configured shutdown timeout. It is safe to call
// more than once.
func (app *Application) Shutdown() error {
	if app.closed.Swap(true) {
		return nil
	}

	timeout := app.config.Process().ShutdownTimeout

	app.compiler.Close()
	if err := app.coordinator.Close(); err != nil {
		app.logger.Debug("close preview", "error", err)
	}

	var err error
	if app.supervisor != nil {
		done := make(chan struct{})
		go func() {
			app.supervisor.Shutdown(timeout)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout + time.Second):
			err = ErrShutdownTimeout
		}
	}

	if app.bridge != nil {
		_ = app.bridge.Close()
	}
	app.logger.Debug("application shut down")
	return err
}

// IsRunning reports whether Watch or Serve is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Editor returns the editor cursor moves and messages go to.
func (app *Application) Editor() editor.Editor {
	return app.editor
}

// Compiler returns the compiler.
func (app *Application) Compiler() *compile.Compiler {
	return app.compiler
}

// Diagnostics returns the diagnostics store.
func (app *Application) Diagnostics() *compile.DiagnosticStore {
	return app.diagnostics
}

// Engine returns the SyncTeX engine.
func (app *Application) Engine() *synctex.Engine {
	return app.engine
}

// Coordinator returns the preview coordinator.
func (app *Application) Coordinator() *preview.Coordinator {
	return app.coordinator
}
