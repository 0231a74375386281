package preview

import (
	"net/url"
	"path/filepath"

	"github.com/dshills/cloverleaf/internal/protocol"
)

// Surface is the display that renders PDF pages.
type Surface interface {
	// Reveal makes the surface visible beside the editor.
	Reveal() error

	// Post delivers a command to the surface.
	Post(cmd protocol.SurfaceCommand) error

	// OnDispose registers fn to run once when the surface goes away.
	OnDispose(fn func())

	// Dispose releases the surface and runs the OnDispose callbacks.
	Dispose() error
}

// SurfaceFactory creates a new surface.
type SurfaceFactory func() (Surface, error)

// FileURL returns the file:// URL for path.
func FileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
