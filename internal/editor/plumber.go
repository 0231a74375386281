package editor

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"9fans.net/go/plan9"
	"9fans.net/go/plumb"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// PlumberOption configures a Plumber.
type PlumberOption func(*Plumber)

// WithPort sets the plumber port messages are written to. The default is
// "send", which lets the plumbing rules route the file to an editor.
func WithPort(port string) PlumberOption {
	return func(p *Plumber) {
		p.port = port
	}
}

// WithOpener replaces how the port is opened.
func WithOpener(open func(port string) (io.WriteCloser, error)) PlumberOption {
	return func(p *Plumber) {
		p.open = open
	}
}

// Plumber is an Editor that moves the cursor by plumbing file:line to a
// plan9port plumber. Messages and diagnostics go to the fallback editor.
type Plumber struct {
	port     string
	open     func(port string) (io.WriteCloser, error)
	fallback Editor
}

// NewPlumber creates a plumber-backed editor.
func NewPlumber(fallback Editor, opts ...PlumberOption) *Plumber {
	if fallback == nil {
		fallback = Nop{}
	}
	p := &Plumber{
		port:     "send",
		open:     openPort,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func openPort(port string) (io.WriteCloser, error) {
	return plumb.Open(port, plan9.OWRITE)
}

// RevealSource implements Editor by sending a showfile message whose addr
// attribute is the 1-based line.
func (p *Plumber) RevealSource(pos synctex.SourcePosition) error {
	w, err := p.open(p.port)
	if err != nil {
		return fmt.Errorf("open plumber port %s: %w", p.port, err)
	}
	defer w.Close()

	line, _ := pos.EditorPosition()
	msg := &plumb.Message{
		Src:  "cloverleaf",
		Dst:  "edit",
		Dir:  filepath.Dir(pos.File),
		Type: "text",
		Attr: &plumb.Attribute{
			Name:  "addr",
			Value: strconv.Itoa(line + 1),
			Next:  &plumb.Attribute{Name: "action", Value: "showfile"},
		},
		Data: []byte(pos.File),
	}
	if err := msg.Send(w); err != nil {
		return fmt.Errorf("plumb %s: %w", pos.File, err)
	}
	return nil
}

// Notify implements Editor.
func (p *Plumber) Notify(level Level, msg string) {
	p.fallback.Notify(level, msg)
}

// PublishDiagnostics implements Editor.
func (p *Plumber) PublishDiagnostics(file string, diags []compile.Diagnostic) {
	p.fallback.PublishDiagnostics(file, diags)
}
