package watch

import "errors"

var (
	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrPathNotExist indicates the watched document's directory is missing.
	ErrPathNotExist = errors.New("path does not exist")
)
