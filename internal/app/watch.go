package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/preview"
	"github.com/dshills/cloverleaf/internal/watch"
	"golang.org/x/sync/errgroup"
)

// autoCompiler recompiles a document when a source file in its directory
// is saved. It wraps the coordinator so that documents shown or compiled
// through the bridge are tracked as they arrive.
type autoCompiler struct {
	*preview.Coordinator

	app     *Application
	watcher *watch.SourceWatcher

	mu   sync.Mutex
	docs map[string]string // directory -> main document
}

func (app *Application) newAutoCompiler() (*autoCompiler, error) {
	cfg := app.config.Preview()
	w, err := watch.New(
		watch.WithDelay(cfg.AutoCompileDelay),
		watch.WithExtensions(cfg.WatchExtensions...),
		watch.WithLogger(app.logger),
	)
	if err != nil {
		return nil, err
	}
	return &autoCompiler{
		Coordinator: app.coordinator,
		app:         app,
		watcher:     w,
		docs:        make(map[string]string),
	}, nil
}

// track watches source's directory. The most recent document wins when
// two share a directory.
func (a *autoCompiler) track(source string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	if err := a.watcher.Add(abs); err != nil {
		return err
	}

	a.mu.Lock()
	a.docs[filepath.Dir(abs)] = abs
	a.mu.Unlock()
	return nil
}

func (a *autoCompiler) documentFor(path string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, ok := a.docs[filepath.Dir(path)]
	return doc, ok
}

// ShowPreview tracks source, then opens the preview.
func (a *autoCompiler) ShowPreview(source string) error {
	if err := a.track(source); err != nil {
		a.app.logger.Warn("auto-compile watch failed", "source", source, "error", err)
	}
	return a.Coordinator.ShowPreview(source)
}

// Compile tracks source, then compiles it.
func (a *autoCompiler) Compile(ctx context.Context, source string) (compile.Result, error) {
	if err := a.track(source); err != nil {
		a.app.logger.Warn("auto-compile watch failed", "source", source, "error", err)
	}
	return a.Coordinator.Compile(ctx, source)
}

// run compiles the owning document on every debounced save until ctx is
// done.
func (a *autoCompiler) run(ctx context.Context) error {
	return a.watcher.Run(ctx, func(path string) {
		doc, ok := a.documentFor(path)
		if !ok {
			return
		}
		a.app.logger.Info("auto-compile", "document", doc, "saved", path)
		if _, err := a.Coordinator.Compile(ctx, doc); err != nil && !errors.Is(err, compile.ErrCompileInProgress) {
			a.app.logger.Error("auto-compile failed", "document", doc, "error", err)
		}
	})
}

func (a *autoCompiler) stop() error {
	return a.watcher.Close()
}

// Watch compiles source, then recompiles it after every debounced save of
// a source file in its directory. It returns when ctx is done.
func (app *Application) Watch(ctx context.Context, source string) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	auto, err := app.newAutoCompiler()
	if err != nil {
		return err
	}
	defer auto.stop()

	if err := auto.track(source); err != nil {
		return err
	}

	app.logger.Info("watching", "document", source)
	if _, err := auto.Coordinator.Compile(ctx, source); err != nil && ctx.Err() == nil {
		app.logger.Warn("initial compile failed", "document", source, "error", err)
	}
	return auto.run(ctx)
}

// Serve answers host requests on stdin until the host shuts down, stdin
// closes or ctx is done. With preview.autoCompile set, documents the host
// shows or compiles are recompiled on save.
func (app *Application) Serve(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if app.bridge == nil {
		return ErrNoBridge
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if !app.config.Preview().AutoCompile {
		return app.bridge.Serve(ctx, app.coordinator)
	}

	auto, err := app.newAutoCompiler()
	if err != nil {
		return err
	}
	defer auto.stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return app.bridge.Serve(gctx, auto)
	})
	g.Go(func() error {
		return auto.run(gctx)
	})
	return g.Wait()
}
