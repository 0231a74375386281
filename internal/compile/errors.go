package compile

import (
	"errors"
	"fmt"
)

// Sentinel errors for the compile package.
var (
	// ErrCompileInProgress is returned when a different document is
	// already compiling on the same Compiler.
	ErrCompileInProgress = errors.New("compilation already in progress")

	// ErrArtifactMissing reports a zero exit without the expected PDF.
	ErrArtifactMissing = errors.New("output artifact not found after compilation")

	// ErrCanceled reports a run stopped through its context.
	ErrCanceled = errors.New("compilation cancelled")
)

// ExitError reports a compiler that ran and exited unsuccessfully.
type ExitError struct {
	Command string
	Code    int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Command, e.Code)
}
