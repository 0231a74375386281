package editor

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// ColorMode selects when Console colourises its output.
type ColorMode string

// Colour modes, as accepted by the --color flag.
const (
	ColorAuto ColorMode = "auto"
	ColorOn   ColorMode = "on"
	ColorOff  ColorMode = "off"
)

// Console is an Editor for terminal use. Reverse-sync results are printed
// as file:line:column so that terminal emulators and editors can jump to
// them.
type Console struct {
	mu sync.Mutex
	w  io.Writer

	info, warning, failure, location *color.Color
}

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer, mode ColorMode) *Console {
	enabled := useColor(w, mode)
	palette := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &Console{
		w:        w,
		info:     palette(color.FgCyan),
		warning:  palette(color.FgYellow, color.Bold),
		failure:  palette(color.FgRed, color.Bold),
		location: palette(color.FgGreen),
	}
}

// RevealSource implements Editor. The printed line and column are 1-based.
func (c *Console) RevealSource(pos synctex.SourcePosition) error {
	line, col := pos.EditorPosition()
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, c.location.Sprintf("%s:%d:%d", pos.File, line+1, col+1))
	return err
}

// Notify implements Editor.
func (c *Console) Notify(level Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "%s %s\n", c.levelColor(level).Sprint(level.String()+":"), msg)
}

// PublishDiagnostics implements Editor.
func (c *Console) PublishDiagnostics(file string, diags []compile.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range diags {
		sev := c.failure
		if d.Severity == compile.SeverityWarning {
			sev = c.warning
		}
		loc := file
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", file, d.Line)
		}
		_, _ = fmt.Fprintf(c.w, "%s: %s %s\n",
			c.location.Sprint(loc),
			sev.Sprint(string(d.Severity)+":"),
			d.Message,
		)
	}
}

func (c *Console) levelColor(l Level) *color.Color {
	switch l {
	case LevelWarning:
		return c.warning
	case LevelError:
		return c.failure
	default:
		return c.info
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
