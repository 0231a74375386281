package preview

import "errors"

// Sentinel errors for the preview package.
var (
	// ErrNoSession is returned when a command needs an open preview.
	ErrNoSession = errors.New("PDF preview not open")

	// ErrNoArtifact is returned when the preview has not loaded a PDF yet.
	ErrNoArtifact = errors.New("no PDF loaded")

	// ErrArtifactMissing is returned when the PDF to load does not exist.
	ErrArtifactMissing = errors.New("PDF file not found")

	// ErrNotConfigured is returned by commands whose collaborator was not
	// supplied to NewCoordinator.
	ErrNotConfigured = errors.New("not configured")
)
