package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/editor"
	"github.com/dshills/cloverleaf/internal/protocol"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// Compiler compiles source documents.
type Compiler interface {
	Compile(ctx context.Context, source string) (compile.Result, error)
	Artifact(source string) string
}

// Mapper answers position-mapping queries.
type Mapper interface {
	Forward(ctx context.Context, source string, line, column int, artifact string) (*synctex.RenderedPosition, error)
	Reverse(ctx context.Context, artifact string, page int, x, y float64) (*synctex.SourcePosition, error)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCompiler sets the compiler used by Compile and ShowPreview.
func WithCompiler(c Compiler) CoordinatorOption {
	return func(co *Coordinator) {
		co.compiler = c
	}
}

// WithMapper sets the synctex engine used by SyncForward and SyncReverse.
func WithMapper(m Mapper) CoordinatorOption {
	return func(co *Coordinator) {
		co.mapper = m
	}
}

// WithEditor sets the editor that receives cursor moves and messages.
func WithEditor(e editor.Editor) CoordinatorOption {
	return func(co *Coordinator) {
		co.editor = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(co *Coordinator) {
		co.logger = l
	}
}

// Coordinator owns the preview session. It is safe for concurrent use.
type Coordinator struct {
	factory  SurfaceFactory
	compiler Compiler
	mapper   Mapper
	editor   editor.Editor
	logger   *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewCoordinator creates a coordinator that opens surfaces with factory.
func NewCoordinator(factory SurfaceFactory, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		factory: factory,
		editor:  editor.Nop{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the live session, or nil.
func (c *Coordinator) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// HasSession reports whether a preview is open.
func (c *Coordinator) HasSession() bool {
	return c.Session() != nil
}

// CurrentArtifactPath returns the PDF shown by the live session, or "".
func (c *Coordinator) CurrentArtifactPath() string {
	if s := c.Session(); s != nil {
		return s.ArtifactPath()
	}
	return ""
}

// OpenOrReveal shows the preview, creating it if needed, and loads
// artifact. A missing artifact leaves the surface revealed but unchanged
// and returns ErrArtifactMissing.
func (c *Coordinator) OpenOrReveal(artifact string) error {
	s, err := c.ensureSession()
	if err != nil {
		return err
	}
	if err := s.surface.Reveal(); err != nil {
		return fmt.Errorf("reveal preview: %w", err)
	}
	return c.load(s, artifact)
}

// ReloadAfterCompile loads artifact into the live session. It does nothing
// when no preview is open.
func (c *Coordinator) ReloadAfterCompile(artifact string) error {
	s := c.Session()
	if s == nil {
		return nil
	}
	return c.load(s, artifact)
}

// PushRenderedPosition scrolls the preview to pos and marks it. A nil pos
// means the forward query found nothing and yields synctex.ErrNoMapping.
func (c *Coordinator) PushRenderedPosition(pos *synctex.RenderedPosition) error {
	if pos == nil {
		return synctex.ErrNoMapping
	}
	s := c.Session()
	if s == nil {
		return ErrNoSession
	}
	return s.surface.Post(protocol.ScrollToPosition{Page: pos.Page, X: pos.X, Y: pos.Y})
}

// Close disposes the live surface, if any.
func (c *Coordinator) Close() error {
	s := c.Session()
	if s == nil {
		return nil
	}
	err := s.surface.Dispose()
	// Clear even if the surface never ran its dispose callbacks.
	c.clearSession(s)
	return err
}

// ShowPreview opens the preview on source's PDF.
func (c *Coordinator) ShowPreview(source string) error {
	artifact := c.artifactFor(source)
	err := c.OpenOrReveal(artifact)
	if errors.Is(err, ErrArtifactMissing) {
		c.editor.Notify(editor.LevelError, "PDF file not found: "+artifact)
	} else if err != nil {
		c.editor.Notify(editor.LevelError, "Could not open PDF preview: "+err.Error())
	}
	return err
}

// Compile compiles source and, on success, reloads the preview.
func (c *Coordinator) Compile(ctx context.Context, source string) (compile.Result, error) {
	if c.compiler == nil {
		return compile.Result{Source: source, ExitCode: -1}, fmt.Errorf("%w: compiler", ErrNotConfigured)
	}

	res, err := c.compiler.Compile(ctx, source)
	switch {
	case errors.Is(err, compile.ErrCompileInProgress):
		c.editor.Notify(editor.LevelWarning, err.Error())
		return res, err
	case err != nil:
		c.editor.Notify(editor.LevelError, "Compilation error: "+err.Error())
		return res, err
	case res.Success:
		c.editor.Notify(editor.LevelInfo, "LaTeX compilation successful")
		if err := c.ReloadAfterCompile(res.Artifact); err != nil {
			c.logger.Warn("reload after compile", "artifact", res.Artifact, "error", err)
		}
	case res.Canceled:
		c.editor.Notify(editor.LevelInfo, "LaTeX compilation cancelled")
	default:
		c.editor.Notify(editor.LevelError, "LaTeX compilation failed. Check output for details.")
	}
	return res, nil
}

// SyncForward scrolls the preview to the 1-based line and column of
// source.
func (c *Coordinator) SyncForward(ctx context.Context, source string, line, column int) error {
	if !c.HasSession() {
		c.editor.Notify(editor.LevelError, "PDF preview not open")
		return ErrNoSession
	}
	if c.mapper == nil {
		return fmt.Errorf("%w: synctex engine", ErrNotConfigured)
	}

	pos, err := c.mapper.Forward(ctx, source, line, column, c.artifactFor(source))
	if err != nil {
		c.editor.Notify(editor.LevelError, "SyncTeX error: "+err.Error())
		return err
	}
	if pos == nil {
		c.editor.Notify(editor.LevelWarning, "Could not find PDF location for this position")
		return synctex.ErrNoMapping
	}

	c.logger.Debug("sync forward", "source", source, "line", line, "column", column, "page", pos.Page)
	return c.PushRenderedPosition(pos)
}

// SyncReverse moves the editor to the source of a point in the PDF the
// preview currently shows.
func (c *Coordinator) SyncReverse(ctx context.Context, page int, x, y float64) error {
	artifact := c.CurrentArtifactPath()
	if artifact == "" {
		c.editor.Notify(editor.LevelError, "No PDF loaded")
		return ErrNoArtifact
	}
	if c.mapper == nil {
		return fmt.Errorf("%w: synctex engine", ErrNotConfigured)
	}

	pos, err := c.mapper.Reverse(ctx, artifact, page, x, y)
	if err != nil {
		c.editor.Notify(editor.LevelError, "Reverse SyncTeX error: "+err.Error())
		return err
	}
	if pos == nil || pos.File == "" {
		c.editor.Notify(editor.LevelWarning, "Could not find source location for this position")
		return synctex.ErrNoMapping
	}

	if !filepath.IsAbs(pos.File) {
		pos.File = filepath.Join(filepath.Dir(artifact), pos.File)
	}
	pos.File = filepath.Clean(pos.File)

	c.logger.Debug("sync reverse", "page", page, "x", x, "y", y, "file", pos.File, "line", pos.Line)
	if err := c.editor.RevealSource(*pos); err != nil {
		c.editor.Notify(editor.LevelError, "Could not open "+pos.File+": "+err.Error())
		return err
	}
	return nil
}

// HandleSurfaceEvent reacts to an event sent by the surface.
func (c *Coordinator) HandleSurfaceEvent(ctx context.Context, ev protocol.SurfaceEvent) error {
	switch e := ev.(type) {
	case protocol.Ready:
		c.logger.Info("PDF viewer ready")
		return nil
	case protocol.ErrorEvent:
		c.editor.Notify(editor.LevelError, "PDF Viewer Error: "+e.Text)
		return nil
	case protocol.SyncPdfToTex:
		return c.SyncReverse(ctx, e.Page, e.X, e.Y)
	default:
		return fmt.Errorf("%w: %T", protocol.ErrUnknownCommand, ev)
	}
}

func (c *Coordinator) ensureSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	surface, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("create preview surface: %w", err)
	}
	s := newSession(surface)
	surface.OnDispose(func() { c.clearSession(s) })
	c.session = s

	c.logger.Info("preview session opened", "session", s.ID)
	return s, nil
}

// clearSession drops s if it is still the live session. A late callback
// from an older surface leaves a newer session alone.
func (c *Coordinator) clearSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.session = nil
		c.logger.Info("preview session closed", "session", s.ID)
	}
}

func (c *Coordinator) load(s *Session, artifact string) error {
	if _, err := os.Stat(artifact); err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactMissing, artifact)
	}
	if err := s.surface.Post(protocol.LoadPdf{PdfURL: FileURL(artifact)}); err != nil {
		return fmt.Errorf("load %s: %w", artifact, err)
	}
	s.setArtifact(artifact)
	return nil
}

func (c *Coordinator) artifactFor(source string) string {
	if c.compiler != nil {
		return c.compiler.Artifact(source)
	}
	return compile.ArtifactPath(source, compile.DefaultOutputExtension)
}

