package app

import "errors"

// Application errors.
var (
	// ErrAlreadyRunning indicates Watch or Serve is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrClosed indicates the application has been shut down.
	ErrClosed = errors.New("application closed")

	// ErrNoBridge indicates Serve was called without the bridge editor.
	ErrNoBridge = errors.New("editor kind is not bridge")

	// ErrSurfaceDisposed is returned when posting to a closed preview.
	ErrSurfaceDisposed = errors.New("preview surface disposed")

	// ErrShutdownTimeout indicates shutdown gave up waiting for children.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
