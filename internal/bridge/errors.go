package bridge

import "errors"

var (
	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("bridge closed")

	// ErrSurfaceDisposed indicates a command was posted to a surface the
	// host already closed.
	ErrSurfaceDisposed = errors.New("preview surface disposed")
)
