// Package editor defines how cloverleaf talks back to the text editor:
// moving the cursor after a reverse sync, showing messages, and placing
// compile diagnostics.
//
// Console prints to a terminal, Plumber hands cursor moves to a plan9port
// plumber so that acme, edwood and friends open the file, and the bridge
// package provides an implementation for editors speaking the JSON-lines
// protocol.
package editor

import (
	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/synctex"
)

// Level is the severity of a user-facing message.
type Level int

const (
	// LevelInfo is an informational message.
	LevelInfo Level = iota
	// LevelWarning is a warning, such as a position with no mapping.
	LevelWarning
	// LevelError is a failure.
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Editor is the host editor.
type Editor interface {
	// RevealSource opens pos.File and places the cursor at pos.
	RevealSource(pos synctex.SourcePosition) error

	// Notify shows msg to the user.
	Notify(level Level, msg string)

	// PublishDiagnostics replaces the annotations shown for file. A nil
	// diags clears them.
	PublishDiagnostics(file string, diags []compile.Diagnostic)
}

// Nop is an Editor that discards everything.
type Nop struct{}

// RevealSource implements Editor.
func (Nop) RevealSource(synctex.SourcePosition) error { return nil }

// Notify implements Editor.
func (Nop) Notify(Level, string) {}

// PublishDiagnostics implements Editor.
func (Nop) PublishDiagnostics(string, []compile.Diagnostic) {}
