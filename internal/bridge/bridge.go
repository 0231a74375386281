package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/editor"
	"github.com/dshills/cloverleaf/internal/preview"
	"github.com/dshills/cloverleaf/internal/protocol"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// Handler executes host requests. *preview.Coordinator implements it.
type Handler interface {
	ShowPreview(source string) error
	Compile(ctx context.Context, source string) (compile.Result, error)
	SyncForward(ctx context.Context, source string, line, column int) error
	SyncReverse(ctx context.Context, page int, x, y float64) error
	HandleSurfaceEvent(ctx context.Context, ev protocol.SurfaceEvent) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithCloser sets a closer released by Close, typically the input stream.
func WithCloser(c io.Closer) Option {
	return func(b *Bridge) {
		b.closer = c
	}
}

// Bridge serves host requests read from a stream and writes notifications
// to another.
type Bridge struct {
	transport *Transport
	logger    *slog.Logger
	closer    io.Closer

	mu       sync.Mutex
	surface  *hostSurface
	compiles map[uint64]context.CancelFunc
	nextID   uint64
}

// New creates a bridge reading requests from r and writing notifications
// to w.
func New(r io.Reader, w io.Writer, opts ...Option) *Bridge {
	b := &Bridge{
		logger:   slog.Default(),
		compiles: make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.transport = NewTransport(r, w, b.closer)
	return b
}

// NewSurface is a preview.SurfaceFactory producing surfaces in the host's
// webview.
func (b *Bridge) NewSurface() (preview.Surface, error) {
	s := &hostSurface{transport: b.transport}

	b.mu.Lock()
	b.surface = s
	b.mu.Unlock()

	return s, nil
}

// RevealSource implements editor.Editor.
func (b *Bridge) RevealSource(pos synctex.SourcePosition) error {
	line, column := pos.EditorPosition()
	return b.transport.Send(protocol.RevealSource{File: pos.File, Line: line, Column: column})
}

// Notify implements editor.Editor.
func (b *Bridge) Notify(level editor.Level, msg string) {
	var l protocol.Level
	switch level {
	case editor.LevelWarning:
		l = protocol.LevelWarning
	case editor.LevelError:
		l = protocol.LevelError
	default:
		l = protocol.LevelInfo
	}
	if err := b.transport.Send(protocol.ShowMessage{Level: l, Text: msg}); err != nil {
		b.logger.Warn("send message", "error", err)
	}
}

// PublishDiagnostics implements editor.Editor.
func (b *Bridge) PublishDiagnostics(file string, diags []compile.Diagnostic) {
	items := make([]protocol.DiagnosticItem, 0, len(diags))
	for _, d := range diags {
		items = append(items, protocol.DiagnosticItem{
			Line:     d.EditorLine(),
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	if err := b.transport.Send(protocol.Diagnostics{File: file, Items: items}); err != nil {
		b.logger.Warn("send diagnostics", "file", file, "error", err)
	}
}

// Serve reads requests until the input ends, a shutdown request arrives,
// or ctx is done. Requests other than cancel and shutdown run
// concurrently; Serve waits for them before returning. Shutdown cancels
// running compiles first.
func (b *Bridge) Serve(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go b.readLoop(ctx, lines, readErr)

	var g errgroup.Group
	err := b.dispatchLoop(ctx, &g, h, lines, readErr)
	if err != nil {
		cancel()
	}
	_ = g.Wait()
	return err
}

func (b *Bridge) readLoop(ctx context.Context, lines chan<- []byte, readErr chan<- error) {
	defer close(lines)
	for {
		line, err := b.transport.ReadLine()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			readErr <- ctx.Err()
			return
		}
	}
}

func (b *Bridge) dispatchLoop(ctx context.Context, g *errgroup.Group, h Handler, lines <-chan []byte, readErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, context.Canceled) {
					b.logger.Debug("input closed")
					return nil
				}
				return fmt.Errorf("read request: %w", err)
			}

			req, err := protocol.DecodeHostRequest(line)
			if err != nil {
				b.logger.Warn("ignoring request", "error", err)
				continue
			}

			switch r := req.(type) {
			case protocol.Shutdown:
				b.logger.Info("shutdown requested")
				b.cancelCompiles()
				return nil
			case protocol.Cancel:
				b.cancelCompiles()
			case protocol.Compile:
				// Track before starting so an immediate cancel reaches it.
				cctx, ccancel := context.WithCancel(ctx)
				id := b.trackCompile(ccancel)
				g.Go(func() error {
					defer b.untrackCompile(id)
					defer ccancel()
					b.compile(cctx, h, r.File)
					return nil
				})
			case protocol.SurfaceEventRequest:
				if _, ok := r.Event.(protocol.Disposed); ok {
					b.surfaceClosed()
					continue
				}
				g.Go(func() error {
					b.handle(ctx, h, r)
					return nil
				})
			default:
				g.Go(func() error {
					b.handle(ctx, h, req)
					return nil
				})
			}
		}
	}
}

// handle runs one request. The handler reports failures to the user
// through the editor, so errors are only logged here.
func (b *Bridge) handle(ctx context.Context, h Handler, req protocol.HostRequest) {
	var err error
	switch r := req.(type) {
	case protocol.ShowPreview:
		err = h.ShowPreview(r.File)
	case protocol.SyncForward:
		err = h.SyncForward(ctx, r.File, r.Line, r.Column)
	case protocol.SyncReverse:
		err = h.SyncReverse(ctx, r.Page, r.X, r.Y)
	case protocol.SurfaceEventRequest:
		err = h.HandleSurfaceEvent(ctx, r.Event)
	}
	if err != nil {
		b.logger.Debug("request failed", "command", req.Command(), "error", err)
	}
}

// compile runs one compile and reports its outcome as a compileResult.
func (b *Bridge) compile(ctx context.Context, h Handler, file string) {
	res, err := h.Compile(ctx, file)
	if err != nil {
		b.logger.Debug("compile failed", "file", file, "error", err)
	}
	if res.Source == "" {
		res.Source = file
	}

	notif := protocol.CompileResult{
		File:     res.Source,
		Success:  res.Success,
		ExitCode: res.ExitCode,
		Canceled: res.Canceled,
	}
	if err := b.transport.Send(notif); err != nil {
		b.logger.Warn("send compile result", "file", file, "error", err)
	}
}

func (b *Bridge) trackCompile(cancel context.CancelFunc) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.compiles[b.nextID] = cancel
	return b.nextID
}

func (b *Bridge) untrackCompile(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.compiles, id)
}

func (b *Bridge) cancelCompiles() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.compiles {
		cancel()
	}
}

func (b *Bridge) surfaceClosed() {
	b.mu.Lock()
	s := b.surface
	b.surface = nil
	b.mu.Unlock()

	if s != nil {
		s.closedByHost()
	}
}

// Close closes the underlying streams.
func (b *Bridge) Close() error {
	return b.transport.Close()
}
